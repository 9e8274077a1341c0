// Package flow drives the training and prediction page state machines
// against the ML backend.
//
// Each flow owns one page session behind a mutex. Backend calls run outside
// the lock; their completions are applied only if the page has not been
// re-mounted in the meantime.
package flow

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mltrainer/internal/ports"
)

// Deps are the collaborators shared by both flows.
type Deps struct {
	Backend ports.MLBackend
	Metrics ports.MetricsExporter
	Logger  *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	return d
}

// observe reports a finished backend call to metrics and the log.
func (d Deps) observe(ctx context.Context, op string, started time.Time, err error, stale bool) {
	call := ports.BackendCall{
		Operation: op,
		Duration:  time.Since(started),
		Err:       err,
		Stale:     stale,
	}
	d.Metrics.RecordBackendCall(ctx, call)

	fields := []zap.Field{
		zap.String("operation", op),
		zap.Duration("duration", call.Duration),
		zap.String("outcome", call.Outcome()),
	}
	switch {
	case err != nil:
		d.Logger.Warn("backend call failed", append(fields, zap.Error(err))...)
	case stale:
		d.Logger.Info("dropping result for re-mounted page", fields...)
	default:
		d.Logger.Debug("backend call completed", fields...)
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordBackendCall(context.Context, ports.BackendCall) {}
func (nopMetrics) Close(context.Context) error                          { return nil }

// call runs a backend request detached from the caller's cancellation: a
// browser leaving the page does not abort the request, its result is simply
// dropped later. A panicking backend is turned into an error so the busy flag
// is still released.
func call[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend call panicked: %v", r)
		}
	}()
	return fn(context.WithoutCancel(ctx))
}
