package web

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/mltrainer/internal/domain"
	"github.com/emiliopalmerini/mltrainer/internal/shared/middleware"
	"github.com/emiliopalmerini/mltrainer/internal/web/templates"
)

func (s *Server) handlePredictionPage(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	s.renderPrediction(w, r, ws.Prediction.Mount(r.Context()))
}

// handleSetField stores one edited input. htmx names the changed input in
// HX-Trigger-Name; plain posts send "name" and "value".
func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	name := middleware.TriggerName(r)
	value := r.PostForm.Get(name)
	if name == "" {
		name = r.PostForm.Get("name")
		value = r.PostForm.Get("value")
	}

	session, err := ws.Prediction.SetField(name, value)
	if errors.Is(err, domain.ErrUnknownField) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if middleware.IsHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.renderPrediction(w, r, session)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	// The form carries every input; fold the posted values in before sending.
	for _, name := range ws.Prediction.Snapshot().FeatureNames {
		if values, ok := r.PostForm[name]; ok && len(values) > 0 {
			_, _ = ws.Prediction.SetField(name, values[0])
		}
	}

	session, err := ws.Prediction.Submit(r.Context())
	if err != nil {
		s.logger.Debug("predict rejected", zap.Error(err))
	}
	s.renderPrediction(w, r, session)
}

func (s *Server) handlePredictionDismiss(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(w, r)
	s.renderPrediction(w, r, ws.Prediction.DismissError())
}

func (s *Server) renderPrediction(w http.ResponseWriter, r *http.Request, session domain.PredictionSession) {
	v := templates.PredictionView{Session: session}
	if middleware.IsHTMX(r) {
		s.render(w, r, templates.PredictionCard(v))
		return
	}
	s.render(w, r, templates.PredictionPage(v))
}
