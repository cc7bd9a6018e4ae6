// Package qdrant adapts a Qdrant instance, reached over gRPC, to the
// normalized engine operation set.
package qdrant

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/vecscope/internal/domain"
)

const (
	// DefaultGRPCPort is where Qdrant serves gRPC.
	DefaultGRPCPort = 6334
	// DefaultRESTPort is the port instance URLs usually carry.
	DefaultRESTPort = 6333
)

// Config holds connection parameters for one Qdrant instance.
type Config struct {
	// URL is the instance URL as registered, usually the REST endpoint.
	URL    string
	APIKey string
	// GRPCPort replaces a URL port equal to RESTPort, or a missing one.
	GRPCPort  int
	RESTPort  int
	SafetyCap int
}

// Conn is a handle to one Qdrant instance. Safe for concurrent use.
type Conn struct {
	cc          *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	safetyCap   int
}

// New creates a lazy gRPC connection: no network round trip happens until
// the first call.
func New(cfg Config) (*Conn, error) {
	target, useTLS, err := Target(cfg.URL, cfg.GRPCPort, cfg.RESTPort)
	if err != nil {
		return nil, err
	}

	creds := insecure.NewCredentials()
	if useTLS {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts := []grpc.DialOption{grpc.WithTransportCredentials(creds)}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	cc, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("qdrant client %s: %w: %w", target, domain.ErrConnectionConfig, err)
	}

	c := newConn(pb.NewPointsClient(cc), pb.NewCollectionsClient(cc), cfg.SafetyCap)
	c.cc = cc
	return c, nil
}

func newConn(points pb.PointsClient, collections pb.CollectionsClient, safetyCap int) *Conn {
	if safetyCap <= 0 {
		safetyCap = 10000
	}
	return &Conn{points: points, collections: collections, safetyCap: safetyCap}
}

// Target derives the gRPC dial target from an instance URL.
// https URLs dial with TLS.
func Target(rawURL string, grpcPort, restPort int) (target string, useTLS bool, err error) {
	if grpcPort <= 0 {
		grpcPort = DefaultGRPCPort
	}
	if restPort <= 0 {
		restPort = DefaultRESTPort
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, fmt.Errorf("parse qdrant url: %w: %w", domain.ErrConnectionConfig, err)
	}
	switch u.Scheme {
	case "http":
	case "https":
		useTLS = true
	default:
		return "", false, fmt.Errorf("qdrant url scheme %q: %w", u.Scheme, domain.ErrConnectionConfig)
	}
	host := u.Hostname()
	if host == "" {
		return "", false, fmt.Errorf("qdrant url has no host: %w", domain.ErrConnectionConfig)
	}

	port := u.Port()
	if port == "" || port == strconv.Itoa(restPort) {
		port = strconv.Itoa(grpcPort)
	}
	return net.JoinHostPort(host, port), useTLS, nil
}

// apiKeyInterceptor attaches the credential to every call, both as the
// api-key header and as a bearer token.
func apiKeyInterceptor(apiKey string) grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context, method string, req, reply any,
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption,
	) error {
		ctx = metadata.AppendToOutgoingContext(ctx,
			"api-key", apiKey,
			"authorization", "Bearer "+apiKey,
		)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Kind returns domain.EngineQdrant.
func (c *Conn) Kind() domain.EngineKind { return domain.EngineQdrant }

// Probe lists collections.
func (c *Conn) Probe(ctx context.Context) error {
	if _, err := c.collections.List(ctx, &pb.ListCollectionsRequest{}); err != nil {
		return wrapErr("probe", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (c *Conn) Close() error {
	if c.cc == nil {
		return nil
	}
	if err := c.cc.Close(); err != nil {
		return fmt.Errorf("close qdrant connection: %w", err)
	}
	return nil
}

// wrapErr turns a gRPC failure into a BackendError, keeping the server text.
func wrapErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.NewBackendError(domain.EngineQdrant, op, err)
	}
	if st, ok := status.FromError(err); ok {
		native := errors.New(st.Message())
		if st.Code() == codes.NotFound {
			return domain.NewMissingError(domain.EngineQdrant, op, native)
		}
		return domain.NewBackendError(domain.EngineQdrant, op, fmt.Errorf("%s: %w", st.Code(), native))
	}
	return domain.NewBackendError(domain.EngineQdrant, op, err)
}
