package domain

import "slices"

// File is a user-chosen dataset held in memory until it is uploaded.
type File struct {
	Name    string
	Content []byte
}

type TrainingState string

const (
	TrainingIdle         TrainingState = "idle"
	TrainingFileChosen   TrainingState = "file_chosen"
	TrainingUploading    TrainingState = "uploading"
	TrainingColumnsReady TrainingState = "columns_ready"
	TrainingTargetChosen TrainingState = "target_chosen"
	TrainingTraining     TrainingState = "training"
	TrainingTrained      TrainingState = "trained"
)

type pendingAction int

const (
	pendingNone pendingAction = iota
	pendingUpload
	pendingTrain
)

// TrainingSession is the per-page state of the training flow.
// The zero value is a freshly mounted page.
type TrainingSession struct {
	SelectedFile      *File
	DiscoveredColumns []string
	TargetVariable    string
	IsBusy            bool
	PredictionURL     string
	ErrorMessage      string

	pending pendingAction
}

// State derives the flow position from the session fields.
func (s *TrainingSession) State() TrainingState {
	switch {
	case s.pending == pendingUpload:
		return TrainingUploading
	case s.pending == pendingTrain:
		return TrainingTraining
	case s.PredictionURL != "":
		return TrainingTrained
	case s.TargetVariable != "":
		return TrainingTargetChosen
	case len(s.DiscoveredColumns) > 0:
		return TrainingColumnsReady
	case s.SelectedFile != nil:
		return TrainingFileChosen
	default:
		return TrainingIdle
	}
}

// ChooseFile selects a new file and invalidates any previously discovered schema.
// The file cannot change while a request is pending, since its result would
// describe the previous file.
func (s *TrainingSession) ChooseFile(f *File) error {
	if s.IsBusy {
		return ErrBusy
	}
	s.SelectedFile = f
	s.DiscoveredColumns = nil
	s.TargetVariable = ""
	return nil
}

// BeginUpload checks the upload preconditions and marks the session busy.
// The returned file is what must be sent to the backend.
func (s *TrainingSession) BeginUpload() (*File, error) {
	if s.IsBusy {
		return nil, ErrBusy
	}
	if s.SelectedFile == nil {
		s.ErrorMessage = MsgSelectFile
		return nil, ErrNoFile
	}
	s.IsBusy = true
	s.pending = pendingUpload
	return s.SelectedFile, nil
}

// FinishUpload applies the outcome of an upload started with BeginUpload.
// A nil columns slice with a nil error is treated as a failure.
func (s *TrainingSession) FinishUpload(columns []string, err error) {
	defer s.release()

	if err != nil || columns == nil {
		s.ErrorMessage = MsgUploadFailed
		return
	}
	s.DiscoveredColumns = slices.Clone(columns)
	s.ErrorMessage = ""
}

// ChooseTarget sets the target variable. The selection control only offers
// discovered columns, so the name is not cross-checked here. The target is
// fixed while a training request is pending.
func (s *TrainingSession) ChooseTarget(name string) error {
	if s.IsBusy {
		return ErrBusy
	}
	s.TargetVariable = name
	return nil
}

// BeginTrain checks the training preconditions and marks the session busy.
func (s *TrainingSession) BeginTrain() (string, error) {
	if s.IsBusy {
		return "", ErrBusy
	}
	if s.TargetVariable == "" {
		s.ErrorMessage = MsgSelectTarget
		return "", ErrNoTarget
	}
	s.IsBusy = true
	s.pending = pendingTrain
	return s.TargetVariable, nil
}

// FinishTrain applies the outcome of a training request started with BeginTrain.
func (s *TrainingSession) FinishTrain(predictionURL string, err error) {
	defer s.release()

	if err != nil || predictionURL == "" {
		s.ErrorMessage = MsgTrainFailed
		return
	}
	s.PredictionURL = predictionURL
}

func (s *TrainingSession) DismissError() {
	s.ErrorMessage = ""
}

// Clone returns a deep copy safe to hand to renderers.
func (s *TrainingSession) Clone() TrainingSession {
	c := *s
	c.DiscoveredColumns = slices.Clone(s.DiscoveredColumns)
	if s.SelectedFile != nil {
		f := *s.SelectedFile
		c.SelectedFile = &f
	}
	return c
}

func (s *TrainingSession) release() {
	s.IsBusy = false
	s.pending = pendingNone
}
