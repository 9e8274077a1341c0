package web

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/mltrainer/internal/flow"
)

const sessionCookie = "mltrainer_session"

// Workspace is the server-side state of one browser: one training page and
// one prediction page. The two flows share nothing.
type Workspace struct {
	Training   *flow.Training
	Prediction *flow.Prediction
}

func NewWorkspace(deps flow.Deps) *Workspace {
	return &Workspace{
		Training:   flow.NewTraining(deps),
		Prediction: flow.NewPrediction(deps),
	}
}

// workspace returns the caller's workspace, creating it and setting the
// session cookie when the browser is new or its session was evicted.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request) *Workspace {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if ws, ok := s.workspaces.Get(c.Value); ok {
			return ws
		}
	}

	s.newWorkspace.Lock()
	defer s.newWorkspace.Unlock()

	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, perr := uuid.Parse(c.Value); perr == nil {
			id = c.Value
			if ws, ok := s.workspaces.Get(id); ok {
				return ws
			}
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	ws := NewWorkspace(s.deps)
	s.workspaces.Add(id, ws)
	s.logger.Debug("new browser session",
		zap.String("session_id", id),
		zap.Int("sessions", s.workspaces.Len()),
	)

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return ws
}
