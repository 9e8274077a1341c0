package flow

import (
	"context"
	"errors"
	"maps"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/emiliopalmerini/mltrainer/internal/adapters/mlbackend"
	"github.com/emiliopalmerini/mltrainer/internal/domain"
)

func TestPrediction_ScenarioAgeIncome(t *testing.T) {
	var sent map[string]string
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"age", "income"}, nil
		},
		PredictFunc: func(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
			sent = inputs
			return &domain.Prediction{Value: "approved"}, nil
		},
	}
	p := NewPrediction(Deps{Backend: backend, Logger: zaptest.NewLogger(t)})

	s := p.Mount(context.Background())
	if len(s.FeatureNames) != 2 {
		t.Fatalf("expected 2 fields, got %v", s.FeatureNames)
	}
	if !maps.Equal(s.InputValues, map[string]string{"age": "", "income": ""}) {
		t.Fatalf("unexpected initial inputs %v", s.InputValues)
	}

	s, err := p.SetField("age", "34")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.InputValues["income"] != "" {
		t.Errorf("expected income untouched, got %q", s.InputValues["income"])
	}

	s, err = p.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !maps.Equal(sent, map[string]string{"age": "34", "income": ""}) {
		t.Errorf("unexpected payload %v", sent)
	}
	if s.PredictionResult == nil || s.PredictionResult.String() != "approved" {
		t.Errorf("unexpected result %+v", s.PredictionResult)
	}
	if s.IsBusy {
		t.Error("expected busy flag released")
	}
}

func TestPrediction_SchemaFetchedOncePerMount(t *testing.T) {
	calls := 0
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			calls++
			return []string{"x"}, nil
		},
	}
	p := NewPrediction(Deps{Backend: backend})

	p.Mount(context.Background())
	p.LoadSchema(context.Background())
	p.LoadSchema(context.Background())
	if calls != 1 {
		t.Errorf("expected 1 schema fetch, got %d", calls)
	}

	p.Mount(context.Background())
	if calls != 2 {
		t.Errorf("expected a new fetch on re-mount, got %d", calls)
	}
}

func TestPrediction_SchemaFailure(t *testing.T) {
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return nil, errors.New("no model trained")
		},
	}
	p := NewPrediction(Deps{Backend: backend})

	s := p.Mount(context.Background())
	if s.ErrorMessage != domain.MsgFeaturesFailed {
		t.Errorf("expected %q, got %q", domain.MsgFeaturesFailed, s.ErrorMessage)
	}
	if len(s.FeatureNames) != 0 {
		t.Errorf("expected zero fields, got %v", s.FeatureNames)
	}

	s = p.DismissError()
	if s.ErrorMessage != "" {
		t.Errorf("expected error cleared, got %q", s.ErrorMessage)
	}
}

func TestPrediction_SubmitFailureKeepsPreviousResult(t *testing.T) {
	fail := false
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"age"}, nil
		},
		PredictFunc: func(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
			if fail {
				return nil, errors.New("network error")
			}
			return &domain.Prediction{Value: float64(7)}, nil
		},
	}
	p := NewPrediction(Deps{Backend: backend})
	p.Mount(context.Background())

	if _, err := p.Submit(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fail = true
	s, err := p.Submit(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ErrorMessage != domain.MsgPredictFailed {
		t.Errorf("expected %q, got %q", domain.MsgPredictFailed, s.ErrorMessage)
	}
	if s.PredictionResult == nil || s.PredictionResult.String() != "7" {
		t.Errorf("expected previous result kept, got %+v", s.PredictionResult)
	}
	if s.IsBusy {
		t.Error("expected busy flag released")
	}
}

func TestPrediction_SetUnknownField(t *testing.T) {
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"age"}, nil
		},
	}
	p := NewPrediction(Deps{Backend: backend})
	p.Mount(context.Background())

	s, err := p.SetField("height", "1")
	if !errors.Is(err, domain.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if len(s.InputValues) != 1 {
		t.Errorf("expected inputs unchanged, got %v", s.InputValues)
	}
}

func TestPrediction_LateSubmitAfterRemountIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &mlbackend.MockClient{
		FeaturesFunc: func(ctx context.Context) ([]string, error) {
			return []string{"age"}, nil
		},
		PredictFunc: func(ctx context.Context, inputs map[string]string) (*domain.Prediction, error) {
			close(started)
			<-release
			return &domain.Prediction{Value: "late"}, nil
		},
	}
	p := NewPrediction(Deps{Backend: backend})
	p.Mount(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Submit(context.Background())
	}()

	<-started
	p.Mount(context.Background())
	close(release)
	<-done

	s := p.Snapshot()
	if s.PredictionResult != nil || s.IsBusy {
		t.Errorf("expected fresh page untouched, got %+v", s)
	}
}
