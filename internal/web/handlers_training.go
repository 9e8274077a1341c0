package web

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
	"github.com/emiliopalmerini/mltrainer/internal/shared/middleware"
	"github.com/emiliopalmerini/mltrainer/internal/util"
	"github.com/emiliopalmerini/mltrainer/internal/web/templates"
)

func (s *Server) handleTrainingPage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	s.renderTraining(w, r, ws.Training.Mount())
}

func (s *Server) handleChooseFile(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)

	file, err := s.readUpload(w, r)
	if err != nil {
		if isTooLarge(err) {
			http.Error(w, "file too large, the limit is "+util.FormatBytes(s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}

	session, err := ws.Training.ChooseFile(file)
	s.logActionError("choose file", err)
	s.renderTraining(w, r, session)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)

	session, err := ws.Training.Upload(r.Context())
	s.logActionError("upload", err)
	s.renderTraining(w, r, session)
}

func (s *Server) handleChooseTarget(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	session, err := ws.Training.ChooseTarget(r.PostFormValue("target_variable"))
	s.logActionError("choose target", err)
	s.renderTraining(w, r, session)
}

func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)

	if target := r.PostFormValue("target_variable"); target != "" {
		// Rejected while busy, so the in-flight target stays selected.
		if _, err := ws.Training.ChooseTarget(target); err != nil {
			s.logActionError("choose target", err)
		}
	}
	session, err := ws.Training.Train(r.Context())
	s.logActionError("train", err)
	s.renderTraining(w, r, session)
}

func (s *Server) handleTrainingDismiss(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	s.renderTraining(w, r, ws.Training.DismissError())
}

// readUpload reads the "file" form field. A missing file yields nil, which
// clears the selection.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*domain.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}

	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &domain.File{Name: hdr.Filename, Content: content}, nil
}

func isTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func (s *Server) renderTraining(w http.ResponseWriter, r *http.Request, session domain.TrainingSession) {
	v := templates.TrainingView{Session: session}
	if middleware.IsHTMX(r) {
		s.render(w, r, templates.TrainingCard(v))
		return
	}
	s.render(w, r, templates.TrainingPage(v))
}

func (s *Server) logActionError(action string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, domain.ErrBusy) {
		s.logger.Debug("action rejected while busy", zap.String("action", action))
		return
	}
	s.logger.Debug("action precondition failed", zap.String("action", action), zap.Error(err))
}
