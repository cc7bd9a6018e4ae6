// Package health aggregates dependency checks for the health endpoint.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates at least one failing check.
	Degraded Status = "degraded"
)

// CheckResult is one component's outcome.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Check names.
const (
	CheckRegistry  = "registry"
	CheckEmbedding = "embedding"
)

// DefaultTimeout bounds each check.
const DefaultTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name string
	fn   func(ctx context.Context) error
}

// Service runs checks concurrently, each under its own timeout.
// Backend instances are not checked: they are probed on registration.
type Service struct {
	checks  []check
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Service. embedding may be nil.
func New(registry Pinger, embedding EmbeddingChecker, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	checks := []check{{name: CheckRegistry, fn: registry.Ping}}
	if embedding != nil {
		checks = append(checks, check{name: CheckEmbedding, fn: embedding.HealthCheck})
	}
	return &Service{checks: checks, timeout: timeout, logger: logger}
}

// Check runs every check. It never fails; failures are reported per check.
func (s *Service) Check(ctx context.Context) Report {
	var mu sync.Mutex
	results := make(map[string]CheckResult, len(s.checks))

	var g errgroup.Group
	for _, c := range s.checks {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			res := CheckOK
			if err := c.fn(cctx); err != nil {
				s.logger.Warn("Health check failed", zap.String("check", c.name), zap.Error(err))
				res = CheckError
			}
			mu.Lock()
			results[c.name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	for _, v := range results {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: results}
}
