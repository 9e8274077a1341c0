package domain

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

type PredictionState string

const (
	PredictionLoading    PredictionState = "loading"
	PredictionReady      PredictionState = "ready"
	PredictionSubmitting PredictionState = "submitting"
	PredictionShown      PredictionState = "result"
)

// Prediction is the scalar returned by the backend for one submission.
type Prediction struct {
	Value any
}

func (p Prediction) String() string {
	switch v := p.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// PredictionSession is the per-page state of the prediction flow.
type PredictionSession struct {
	FeatureNames     []string
	InputValues      map[string]string
	IsBusy           bool
	PredictionResult *Prediction
	ErrorMessage     string

	schemaRequested bool
	schemaLoaded    bool
}

// State derives the flow position from the session fields.
func (s *PredictionSession) State() PredictionState {
	switch {
	case !s.schemaLoaded:
		return PredictionLoading
	case s.IsBusy:
		return PredictionSubmitting
	case s.PredictionResult != nil:
		return PredictionShown
	default:
		return PredictionReady
	}
}

// BeginSchemaLoad reports whether the schema still needs fetching for this
// page load. It returns true at most once per session.
func (s *PredictionSession) BeginSchemaLoad() bool {
	if s.schemaRequested {
		return false
	}
	s.schemaRequested = true
	return true
}

// FinishSchemaLoad applies the fetched feature names. On failure the form is
// left with zero fields.
func (s *PredictionSession) FinishSchemaLoad(features []string, err error) {
	s.schemaLoaded = true
	if err != nil || features == nil {
		s.FeatureNames = []string{}
		s.InputValues = map[string]string{}
		s.ErrorMessage = MsgFeaturesFailed
		return
	}
	s.FeatureNames = slices.Clone(features)
	s.InputValues = make(map[string]string, len(features))
	for _, name := range features {
		s.InputValues[name] = ""
	}
}

// SetField replaces one input value, leaving every other entry untouched.
func (s *PredictionSession) SetField(name, value string) error {
	if _, ok := s.InputValues[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	s.InputValues[name] = value
	return nil
}

// BeginSubmit marks the session busy and returns a copy of the inputs to send.
func (s *PredictionSession) BeginSubmit() (map[string]string, error) {
	if s.IsBusy {
		return nil, ErrBusy
	}
	s.IsBusy = true
	inputs := maps.Clone(s.InputValues)
	if inputs == nil {
		inputs = map[string]string{}
	}
	return inputs, nil
}

// FinishSubmit applies a prediction outcome. A failure keeps the previous result.
func (s *PredictionSession) FinishSubmit(result *Prediction, err error) {
	defer func() { s.IsBusy = false }()

	if err != nil || result == nil {
		s.ErrorMessage = MsgPredictFailed
		return
	}
	r := *result
	s.PredictionResult = &r
}

func (s *PredictionSession) DismissError() {
	s.ErrorMessage = ""
}

// Clone returns a deep copy safe to hand to renderers.
func (s *PredictionSession) Clone() PredictionSession {
	c := *s
	c.FeatureNames = slices.Clone(s.FeatureNames)
	c.InputValues = maps.Clone(s.InputValues)
	if s.PredictionResult != nil {
		r := *s.PredictionResult
		c.PredictionResult = &r
	}
	return c
}
