package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/mltrainer/internal/flow"
	"github.com/emiliopalmerini/mltrainer/internal/ports"
	"github.com/emiliopalmerini/mltrainer/internal/shared/middleware"
)

//go:embed static/*
var staticFiles embed.FS

// Config holds web server settings.
type Config struct {
	Addr            string
	MaxUploadBytes  int64
	ShutdownTimeout time.Duration
	SecureCookies   bool
}

type Server struct {
	cfg        Config
	router     chi.Router
	deps       flow.Deps
	logger     *zap.Logger
	workspaces ports.SessionStore[*Workspace]

	// newWorkspace serializes workspace creation for ids missing from the store.
	newWorkspace sync.Mutex
}

func NewServer(cfg Config, deps flow.Deps, workspaces ports.SessionStore[*Workspace]) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
		deps.Logger = logger
	}

	s := &Server{
		cfg:        cfg,
		router:     chi.NewRouter(),
		deps:       deps,
		logger:     logger,
		workspaces: workspaces,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.HTMX)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)

	// Static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to create static filesystem: %v", err))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Training flow
	r.Get("/", s.handleTrainingPage)
	r.Post("/training/file", s.handleChooseFile)
	r.Post("/training/upload", s.handleUpload)
	r.Post("/training/target", s.handleChooseTarget)
	r.Post("/training/train", s.handleTrain)
	r.Post("/training/dismiss", s.handleTrainingDismiss)

	// Prediction flow
	r.Get("/predict", s.handlePredictionPage)
	r.Post("/predict/field", s.handleSetField)
	r.Post("/predict/submit", s.handleSubmit)
	r.Post("/predict/dismiss", s.handlePredictionDismiss)

	r.NotFound(s.handleNotFound)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("starting server", zap.String("addr", s.cfg.Addr))

	// Handle graceful shutdown
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown", zap.Error(err))
		}
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil // Graceful shutdown
	}
	return err
}
