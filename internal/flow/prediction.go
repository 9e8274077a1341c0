package flow

import (
	"context"
	"sync"
	"time"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
	"github.com/emiliopalmerini/mltrainer/internal/ports"
)

// Prediction is the prediction page controller.
type Prediction struct {
	deps Deps

	mu         sync.Mutex
	generation uint64
	session    domain.PredictionSession
}

func NewPrediction(deps Deps) *Prediction {
	return &Prediction{deps: deps.withDefaults()}
}

// Mount starts a fresh page session and fetches the feature schema once.
func (p *Prediction) Mount(ctx context.Context) domain.PredictionSession {
	p.mu.Lock()
	p.generation++
	p.session = domain.PredictionSession{}
	p.mu.Unlock()

	return p.LoadSchema(ctx)
}

// LoadSchema fetches the feature names unless this page load already did.
func (p *Prediction) LoadSchema(ctx context.Context) domain.PredictionSession {
	p.mu.Lock()
	gen := p.generation
	if !p.session.BeginSchemaLoad() {
		snap := p.session.Clone()
		p.mu.Unlock()
		return snap
	}
	p.mu.Unlock()

	started := time.Now()
	features, callErr := call(ctx, p.deps.Backend.Features)

	snap, stale := p.complete(gen, func(s *domain.PredictionSession) { s.FinishSchemaLoad(features, callErr) })
	p.deps.observe(ctx, ports.OpFeatures, started, callErr, stale)
	return snap
}

func (p *Prediction) Snapshot() domain.PredictionSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Clone()
}

func (p *Prediction) SetField(name, value string) (domain.PredictionSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.session.SetField(name, value)
	return p.session.Clone(), err
}

func (p *Prediction) DismissError() domain.PredictionSession {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.session.DismissError()
	return p.session.Clone()
}

// Submit sends the current input values and stores the prediction.
func (p *Prediction) Submit(ctx context.Context) (domain.PredictionSession, error) {
	p.mu.Lock()
	gen := p.generation
	inputs, err := p.session.BeginSubmit()
	if err != nil {
		snap := p.session.Clone()
		p.mu.Unlock()
		return snap, err
	}
	p.mu.Unlock()

	started := time.Now()
	result, callErr := call(ctx, func(ctx context.Context) (*domain.Prediction, error) {
		return p.deps.Backend.Predict(ctx, inputs)
	})

	snap, stale := p.complete(gen, func(s *domain.PredictionSession) { s.FinishSubmit(result, callErr) })
	p.deps.observe(ctx, ports.OpPredict, started, callErr, stale)
	return snap, nil
}

func (p *Prediction) complete(gen uint64, fn func(s *domain.PredictionSession)) (domain.PredictionSession, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen != p.generation {
		return p.session.Clone(), true
	}
	fn(&p.session)
	return p.session.Clone(), false
}
