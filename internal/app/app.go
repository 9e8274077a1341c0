package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emiliopalmerini/mltrainer/internal/adapters/memory"
	"github.com/emiliopalmerini/mltrainer/internal/adapters/mlbackend"
	"github.com/emiliopalmerini/mltrainer/internal/adapters/otel"
	"github.com/emiliopalmerini/mltrainer/internal/flow"
	"github.com/emiliopalmerini/mltrainer/internal/logging"
	"github.com/emiliopalmerini/mltrainer/internal/ports"
	"github.com/emiliopalmerini/mltrainer/internal/web"
)

// App holds the process-wide dependencies shared by the web server and the
// headless commands.
type App struct {
	Config  *Config
	Logger  *zap.Logger
	Backend *mlbackend.Client
	Metrics ports.MetricsExporter

	closeLog func() error
}

func New(ctx context.Context, cfg *Config) (*App, error) {
	logger, closeLog, err := logging.New(cfg.Logging())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	backend, err := mlbackend.NewClient(cfg.Backend())
	if err != nil {
		_ = logger.Sync()
		_ = closeLog()
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Backend:  backend,
		Metrics:  newMetrics(ctx, cfg.OTEL(), logger),
		closeLog: closeLog,
	}, nil
}

// newMetrics falls back to a no-op exporter so a missing collector never
// keeps the front end from starting.
func newMetrics(ctx context.Context, cfg otel.Config, logger *zap.Logger) ports.MetricsExporter {
	if !cfg.Enabled {
		return otel.NewNoOpExporter()
	}
	exp, err := otel.NewExporter(ctx, cfg)
	if err != nil {
		logger.Warn("metrics disabled", zap.Error(err))
		return otel.NewNoOpExporter()
	}
	logger.Info("exporting metrics", zap.String("endpoint", cfg.Endpoint))
	return exp
}

func (a *App) Deps() flow.Deps {
	return flow.Deps{Backend: a.Backend, Metrics: a.Metrics, Logger: a.Logger}
}

// Close flushes metrics and the logger, then closes the log file.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Metrics != nil {
		if err := a.Metrics.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("closing metrics: %w", err))
		}
	}
	if a.Logger != nil {
		// Sync on stderr reports EINVAL on some platforms.
		_ = a.Logger.Sync()
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, fmt.Errorf("closing log file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// NewServer builds the web front end with its browser session store.
func (a *App) NewServer() (*web.Server, error) {
	store, err := memory.NewSessionStore(a.Config.SessionCapacity, func(id string, _ *web.Workspace) {
		a.Logger.Debug("browser session evicted", zap.String("session_id", id))
	})
	if err != nil {
		return nil, err
	}
	return web.NewServer(a.Config.Web(), a.Deps(), store), nil
}

// Serve runs the web front end until ctx is cancelled or SIGINT/SIGTERM
// arrives, then shuts it down gracefully.
func (a *App) Serve(ctx context.Context) error {
	server, err := a.NewServer()
	if err != nil {
		return err
	}

	if err := a.Backend.Ping(ctx); err != nil {
		a.Logger.Warn("ML backend not reachable, pages will show errors until it is",
			zap.String("backend_url", a.Config.BackendURL),
			zap.Error(err),
		)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	// Handle shutdown signals
	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			a.Logger.Info("shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	g.Go(func() error {
		return server.Start(gctx)
	})

	return g.Wait()
}
