package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/mltrainer/internal/app"
)

// AppContext holds the shared dependencies of a CLI invocation.
type AppContext struct {
	*app.App
}

// NewAppContext loads the configuration, applies the persistent flag
// overrides and builds the dependencies.
func NewAppContext(cmd *cobra.Command) (*AppContext, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if backendURL != "" {
		cfg.BackendURL = backendURL
	}

	a, err := app.New(commandContext(cmd), cfg)
	if err != nil {
		return nil, err
	}
	return &AppContext{App: a}, nil
}

// Close flushes metrics and logs, bounded by the shutdown timeout.
func (a *AppContext) Close() error {
	if a.App == nil {
		return nil
	}
	timeout := 5 * time.Second
	if a.Config != nil && a.Config.ShutdownTimeout > 0 {
		timeout = a.Config.ShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.App.Close(ctx)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
