package domain

import (
	"errors"
	"maps"
	"testing"
)

func TestPredictionSession_SchemaLoadInitializesInputs(t *testing.T) {
	var s PredictionSession
	assertEqual(t, "State", PredictionLoading, s.State())

	if !s.BeginSchemaLoad() {
		t.Fatal("expected first schema load to proceed")
	}
	s.FinishSchemaLoad([]string{"age", "income"}, nil)

	want := map[string]string{"age": "", "income": ""}
	if !maps.Equal(s.InputValues, want) {
		t.Errorf("expected %v, got %v", want, s.InputValues)
	}
	assertEqual(t, "State", PredictionReady, s.State())
}

func TestPredictionSession_SchemaLoadOnce(t *testing.T) {
	var s PredictionSession
	if !s.BeginSchemaLoad() {
		t.Fatal("expected first schema load to proceed")
	}
	if s.BeginSchemaLoad() {
		t.Error("expected second schema load to be skipped")
	}
}

func TestPredictionSession_SchemaLoadFailure(t *testing.T) {
	tests := []struct {
		name     string
		features []string
		err      error
	}{
		{name: "transport error", err: errors.New("timeout")},
		{name: "missing features key", features: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s PredictionSession
			s.BeginSchemaLoad()
			s.FinishSchemaLoad(tt.features, tt.err)

			assertEqual(t, "ErrorMessage", MsgFeaturesFailed, s.ErrorMessage)
			assertEqual(t, "field count", 0, len(s.FeatureNames))
			assertEqual(t, "input count", 0, len(s.InputValues))
			assertEqual(t, "State", PredictionReady, s.State())
		})
	}
}

func TestPredictionSession_SetFieldIsPartial(t *testing.T) {
	var s PredictionSession
	s.FinishSchemaLoad([]string{"age", "income", "city"}, nil)

	if err := s.SetField("age", "34"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{"age": "34", "income": "", "city": ""}
	if !maps.Equal(s.InputValues, want) {
		t.Errorf("expected %v, got %v", want, s.InputValues)
	}
}

func TestPredictionSession_SetUnknownField(t *testing.T) {
	var s PredictionSession
	s.FinishSchemaLoad([]string{"age"}, nil)

	err := s.SetField("height", "180")
	if !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	assertEqual(t, "input count", 1, len(s.InputValues))
}

func TestPredictionSession_SubmitSendsAllInputs(t *testing.T) {
	var s PredictionSession
	s.FinishSchemaLoad([]string{"age", "income"}, nil)
	_ = s.SetField("age", "34")

	inputs, err := s.BeginSubmit()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]string{"age": "34", "income": ""}
	if !maps.Equal(inputs, want) {
		t.Errorf("expected %v, got %v", want, inputs)
	}
	assertEqual(t, "State", PredictionSubmitting, s.State())

	if _, err := s.BeginSubmit(); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	s.FinishSubmit(&Prediction{Value: "yes"}, nil)
	assertEqual(t, "IsBusy", false, s.IsBusy)
	assertEqual(t, "result", "yes", s.PredictionResult.String())
	assertEqual(t, "State", PredictionShown, s.State())
}

func TestPredictionSession_SubmitFailureKeepsResult(t *testing.T) {
	var s PredictionSession
	s.FinishSchemaLoad([]string{"age"}, nil)
	s.PredictionResult = &Prediction{Value: float64(1)}

	if _, err := s.BeginSubmit(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.FinishSubmit(nil, errors.New("network down"))

	assertEqual(t, "ErrorMessage", MsgPredictFailed, s.ErrorMessage)
	assertEqual(t, "IsBusy", false, s.IsBusy)
	if s.PredictionResult == nil {
		t.Fatal("expected previous result to be kept")
	}
	assertEqual(t, "result", "1", s.PredictionResult.String())
}

func TestPrediction_String(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{value: "setosa", want: "setosa"},
		{value: float64(42), want: "42"},
		{value: 0.25, want: "0.25"},
		{value: true, want: "true"},
		{value: nil, want: "<nil>"},
	}
	for _, tt := range tests {
		assertEqual(t, "String", tt.want, Prediction{Value: tt.value}.String())
	}
}

func TestPredictionSession_CloneIsDeep(t *testing.T) {
	var s PredictionSession
	s.FinishSchemaLoad([]string{"age"}, nil)

	c := s.Clone()
	c.InputValues["age"] = "99"

	assertEqual(t, "original", "", s.InputValues["age"])
}
