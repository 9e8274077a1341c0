package domain

import "errors"

// User-facing notices shown on the pages.
const (
	MsgSelectFile     = "Please select a file first."
	MsgUploadFailed   = "Error uploading file. Please try again."
	MsgSelectTarget   = "Please select a target variable."
	MsgTrainFailed    = "Error training models. Please try again."
	MsgFeaturesFailed = "Error fetching features. Please try again."
	MsgPredictFailed  = "Error making prediction. Please try again."
)

var (
	ErrNoFile       = errors.New("no file selected")
	ErrNoTarget     = errors.New("no target variable selected")
	ErrBusy         = errors.New("a request is already in flight")
	ErrUnknownField = errors.New("unknown feature field")
)
