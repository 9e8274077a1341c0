package otel

import (
	"context"

	"github.com/emiliopalmerini/mltrainer/internal/ports"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordBackendCall(ctx context.Context, c ports.BackendCall) {}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
