package mlbackend

import (
	"context"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
)

// MockClient is a mock implementation of ports.MLBackend for testing.
type MockClient struct {
	UploadDatasetFunc func(ctx context.Context, file *domain.File) ([]string, error)
	TrainFunc         func(ctx context.Context, targetVariable string) (string, error)
	FeaturesFunc      func(ctx context.Context) ([]string, error)
	PredictFunc       func(ctx context.Context, inputs map[string]string) (*domain.Prediction, error)
}

func (m *MockClient) UploadDataset(ctx context.Context, file *domain.File) ([]string, error) {
	if m.UploadDatasetFunc != nil {
		return m.UploadDatasetFunc(ctx, file)
	}
	return []string{}, nil
}

func (m *MockClient) Train(ctx context.Context, targetVariable string) (string, error) {
	if m.TrainFunc != nil {
		return m.TrainFunc(ctx, targetVariable)
	}
	return "/predict", nil
}

func (m *MockClient) Features(ctx context.Context) ([]string, error) {
	if m.FeaturesFunc != nil {
		return m.FeaturesFunc(ctx)
	}
	return []string{}, nil
}

func (m *MockClient) Predict(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, inputs)
	}
	return &domain.Prediction{Value: ""}, nil
}
