package ports

import (
	"context"
	"time"
)

// Backend operations reported to the metrics exporter.
const (
	OpUpload   = "upload"
	OpTrain    = "train"
	OpFeatures = "features"
	OpPredict  = "predict"
)

// MetricsExporter exports backend call metrics to an external observability system.
type MetricsExporter interface {
	// RecordBackendCall records one completed call to the ML backend.
	RecordBackendCall(ctx context.Context, c BackendCall)
	// Close shuts down the exporter and flushes any pending metrics.
	Close(ctx context.Context) error
}

// BackendCall describes one request made to the ML backend.
type BackendCall struct {
	Operation string
	Duration  time.Duration
	Err       error
	// Stale is set when the page that issued the call was re-mounted before
	// the call completed and its result was dropped.
	Stale bool
}

// Outcome classifies the call for metric attributes.
func (c BackendCall) Outcome() string {
	switch {
	case c.Err != nil:
		return "error"
	case c.Stale:
		return "stale"
	default:
		return "ok"
	}
}
