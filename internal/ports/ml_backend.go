package ports

import (
	"context"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
)

// MLBackend is the remote service that parses datasets, trains models and
// serves predictions.
type MLBackend interface {
	// UploadDataset sends a CSV file and returns the column names found in it.
	UploadDataset(ctx context.Context, file *domain.File) ([]string, error)
	// Train starts model training for the given target column and returns the
	// URL of the prediction page.
	Train(ctx context.Context, targetVariable string) (string, error)
	// Features returns the feature names the trained model expects.
	Features(ctx context.Context) ([]string, error)
	// Predict submits one set of feature values.
	Predict(ctx context.Context, inputs map[string]string) (*domain.Prediction, error)
}
