package templates

import (
	"fmt"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
)

type TrainingView struct {
	Session domain.TrainingSession
}

// UploadPending reports whether the spinner belongs on the upload button.
func (v TrainingView) UploadPending() bool {
	return v.Session.State() == domain.TrainingUploading
}

func (v TrainingView) TrainPending() bool {
	return v.Session.State() == domain.TrainingTraining
}

type PredictionView struct {
	Session domain.PredictionSession
}

// Loading reports whether the feature schema has not arrived yet.
func (v PredictionView) Loading() bool {
	return v.Session.State() == domain.PredictionLoading
}

func (v PredictionView) SubmitPending() bool {
	return v.Session.State() == domain.PredictionSubmitting
}

func (v PredictionView) Result() string {
	if v.Session.PredictionResult == nil {
		return ""
	}
	return v.Session.PredictionResult.String()
}

type NotFoundView struct {
	Path string
}

const (
	trainingCardID   = "#training-card"
	predictionCardID = "#prediction-card"
)

// busyElements are disabled by htmx while a training request is in flight,
// so the file and target cannot change under it.
const busyElements = "#training-card input, #training-card select, #training-card button"

func fieldID(i int) string {
	return fmt.Sprintf("feature-%d", i)
}
