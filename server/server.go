// Package server - HTTP UI and JSON API for the wayang classifier.
package server

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/nvr-ai/wayang/config"
	"github.com/nvr-ai/wayang/controller"
	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/metrics"
	"github.com/nvr-ai/wayang/models/model"
	"github.com/pkg/errors"
)

// LoadState reports which models are loaded. *models.Registry implements it.
type LoadState interface {
	Loaded() []model.Name
}

// Options wires the server to its collaborators.
type Options struct {
	Config    config.ServerConfig
	Predictor inference.Predictor
	Models    LoadState
	Sessions  *controller.Manager
	Metrics   *metrics.Metrics
	// DefaultModel is used when a request names no model.
	DefaultModel model.Name
}

// Server serves the upload page, the JSON API and live-frame sessions.
type Server struct {
	cfg       config.ServerConfig
	predictor inference.Predictor
	models    LoadState
	sessions  *controller.Manager
	metrics   *metrics.Metrics
	fallback  model.Name
	page      *template.Template
}

// NewServer returns a configured server.
func NewServer(opts Options) (*Server, error) {
	if opts.Predictor == nil {
		return nil, errors.New("predictor is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = controller.NewManager(opts.Predictor, controller.DefaultOptions())
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = model.DefaultName
	}
	if opts.Config.MaxUploadBytes <= 0 {
		opts.Config.MaxUploadBytes = config.Default().Server.MaxUploadBytes
	}

	page, err := template.ParseFS(templates, "templates/index.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing index template")
	}

	return &Server{
		cfg:       opts.Config,
		predictor: opts.Predictor,
		models:    opts.Models,
		sessions:  opts.Sessions,
		metrics:   opts.Metrics,
		fallback:  opts.DefaultModel,
		page:      page,
	}, nil
}

// Handler exposes the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /models", s.handleModels)
	mux.HandleFunc("POST /predict", s.handlePredict)
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("PUT /sessions/{id}/model", s.handleSetModel)
	mux.HandleFunc("POST /sessions/{id}/frames", s.handleFrame)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleDeleteSession)
	mux.Handle("GET /metrics", s.metrics.Handler())

	return enableCORS(mux)
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server", "listening on %s", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server", "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "X-Wayang-Label, X-Wayang-Confidence, X-Wayang-Model")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
