package flow

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
	"github.com/emiliopalmerini/mltrainer/internal/ports"
)

// Training is the training page controller.
type Training struct {
	deps Deps

	mu         sync.Mutex
	generation uint64
	session    domain.TrainingSession
}

func NewTraining(deps Deps) *Training {
	return &Training{deps: deps.withDefaults()}
}

// Mount starts a fresh page session. Requests still in flight for the
// previous page are ignored when they complete.
func (t *Training) Mount() domain.TrainingSession {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.session = domain.TrainingSession{}
	return t.session.Clone()
}

func (t *Training) Snapshot() domain.TrainingSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session.Clone()
}

// ChooseFile replaces the selected file. It returns ErrBusy, leaving the
// session unchanged, while an upload or training request is in flight.
func (t *Training) ChooseFile(f *domain.File) (domain.TrainingSession, error) {
	var err error
	snap := t.update(func(s *domain.TrainingSession) { err = s.ChooseFile(f) })
	return snap, err
}

// ChooseTarget sets the target variable, or returns ErrBusy while a request
// is in flight.
func (t *Training) ChooseTarget(name string) (domain.TrainingSession, error) {
	var err error
	snap := t.update(func(s *domain.TrainingSession) { err = s.ChooseTarget(name) })
	return snap, err
}

func (t *Training) DismissError() domain.TrainingSession {
	return t.update(func(s *domain.TrainingSession) { s.DismissError() })
}

// Upload sends the selected file and stores the discovered columns.
// Precondition failures and ErrBusy are returned without contacting the backend;
// backend failures are reported only through the session's error message.
func (t *Training) Upload(ctx context.Context) (domain.TrainingSession, error) {
	t.mu.Lock()
	gen := t.generation
	file, err := t.session.BeginUpload()
	if err != nil {
		snap := t.session.Clone()
		t.mu.Unlock()
		return snap, err
	}
	t.mu.Unlock()

	started := time.Now()
	columns, callErr := call(ctx, func(ctx context.Context) ([]string, error) {
		return t.deps.Backend.UploadDataset(ctx, file)
	})

	snap, stale := t.complete(gen, func(s *domain.TrainingSession) { s.FinishUpload(columns, callErr) })
	t.deps.observe(ctx, ports.OpUpload, started, callErr, stale)
	if callErr == nil && !stale {
		t.deps.Logger.Info("dataset uploaded",
			zap.String("file", file.Name),
			zap.Int("columns", len(columns)),
		)
	}
	return snap, nil
}

// Train starts model training for the chosen target variable.
func (t *Training) Train(ctx context.Context) (domain.TrainingSession, error) {
	t.mu.Lock()
	gen := t.generation
	target, err := t.session.BeginTrain()
	if err != nil {
		snap := t.session.Clone()
		t.mu.Unlock()
		return snap, err
	}
	t.mu.Unlock()

	started := time.Now()
	predictionURL, callErr := call(ctx, func(ctx context.Context) (string, error) {
		return t.deps.Backend.Train(ctx, target)
	})

	snap, stale := t.complete(gen, func(s *domain.TrainingSession) { s.FinishTrain(predictionURL, callErr) })
	t.deps.observe(ctx, ports.OpTrain, started, callErr, stale)
	return snap, nil
}

func (t *Training) update(fn func(s *domain.TrainingSession)) domain.TrainingSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.session)
	return t.session.Clone()
}

// complete applies fn if the page generation is unchanged and reports
// whether the result was dropped instead.
func (t *Training) complete(gen uint64, fn func(s *domain.TrainingSession)) (domain.TrainingSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		return t.session.Clone(), true
	}
	fn(&t.session)
	return t.session.Clone(), false
}

// IsPrecondition reports whether err was raised locally without a backend call.
func IsPrecondition(err error) bool {
	return errors.Is(err, domain.ErrNoFile) ||
		errors.Is(err, domain.ErrNoTarget) ||
		errors.Is(err, domain.ErrBusy) ||
		errors.Is(err, domain.ErrUnknownField)
}
