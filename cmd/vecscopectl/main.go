// Command vecscopectl manages the instance registry shared with the
// vecscope API server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecscope/internal/config"
	"github.com/kailas-cloud/vecscope/internal/db"
	dbFile "github.com/kailas-cloud/vecscope/internal/db/file"
	dbRedis "github.com/kailas-cloud/vecscope/internal/db/redis"
	"github.com/kailas-cloud/vecscope/internal/engine"
	logpkg "github.com/kailas-cloud/vecscope/internal/logger"
	instancerepo "github.com/kailas-cloud/vecscope/internal/repository/instance"
	instanceuc "github.com/kailas-cloud/vecscope/internal/usecase/instance"
	"github.com/kailas-cloud/vecscope/internal/version"
)

func main() {
	if err := newRootCmd(openService).Execute(); err != nil {
		os.Exit(1)
	}
}

// serviceOpener builds the instance service for the resolved environment.
// The returned func releases the underlying store.
type serviceOpener func(env string) (instanceService, func(), error)

func newRootCmd(open serviceOpener) *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:           "vecscopectl",
		Short:         "Manage vecscope database instances",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&env, "env", config.GetEnv(), "config environment (config/<env>.yaml)")

	app := &cliApp{open: open, env: &env}
	root.AddCommand(newInstancesCmd(app))
	return root
}

// openService wires the registry the same way the API server does.
func openService(env string) (instanceService, func(), error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logpkg.NewLogger(env, "warn")
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	var store db.Store
	switch cfg.Registry.Driver {
	case config.DriverFile:
		store, err = dbFile.NewStore(dbFile.Config{Dir: cfg.Registry.Dir})
	case config.DriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Registry.Addrs,
			Password: cfg.Registry.Password,
		})
	default:
		err = fmt.Errorf("unknown registry driver %q", cfg.Registry.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}

	factory := engine.NewFactory(engine.Options{
		SafetyCap:      cfg.Engines.SafetyCap,
		Timeout:        cfg.Engines.RequestTimeout(),
		QdrantGRPCPort: cfg.Engines.Qdrant.GRPCPort,
		QdrantRESTPort: cfg.Engines.Qdrant.RESTPort,
		ChromaTenant:   cfg.Engines.Chroma.Tenant,
		ChromaDatabase: cfg.Engines.Chroma.Database,
		ChromaPort:     cfg.Engines.Chroma.Port,
	})
	svc := instanceuc.New(instancerepo.New(store, cfg.Registry.Key, logger), factory)

	closeFn := func() {
		store.Close()
		_ = logger.Sync()
	}
	logger.Debug("registry opened", zap.String("driver", cfg.Registry.Driver))
	return svc, closeFn, nil
}
