package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nvr-ai/wayang/config"
	"github.com/nvr-ai/wayang/controller"
	"github.com/nvr-ai/wayang/inference"
	"github.com/nvr-ai/wayang/inference/providers"
	"github.com/nvr-ai/wayang/logger"
	"github.com/nvr-ai/wayang/metrics"
	"github.com/nvr-ai/wayang/models"
	"github.com/nvr-ai/wayang/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	addr := flag.String("addr", "", "listen address (overrides server.addr)")
	modelsDir := flag.String("models-dir", "", "directory holding the wayang_*.onnx files (overrides models.dir)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("main", "%v", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *modelsDir != "" {
		cfg.Models.Dir = *modelsDir
	}

	level, _ := logger.ParseLevel(cfg.Log.Level)
	logger.Init(level, os.Stderr, cfg.Log.Color)

	registry := models.NewRegistry(cfg.Models.Dir, inference.NewONNXLoader(cfg.Runtime, cfg.Models.Tensors))
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Warn("main", "closing models: %v", err)
		}
		if err := providers.DestroyEnvironment(); err != nil {
			logger.Warn("main", "destroying runtime: %v", err)
		}
	}()

	if cfg.Models.Eager {
		if err := registry.LoadAll(); err != nil {
			logger.Error("main", "%v", err)
			os.Exit(1)
		}
		logger.Info("main", "loaded models: %v", registry.Loaded())
	}

	m := metrics.New()
	classifier := inference.NewClassifier(registry, m)

	liveOpts := controller.DefaultOptions()
	liveOpts.Model = cfg.Live.DefaultModel
	liveOpts.JPEGQuality = cfg.Live.JPEGQuality
	liveOpts.Metrics = m
	liveOpts.IdleTimeout = cfg.Live.SessionIdleTimeout
	liveOpts.MaxSessions = cfg.Live.MaxSessions
	sessions := controller.NewManager(classifier, liveOpts)

	srv, err := server.NewServer(server.Options{
		Config:       cfg.Server,
		Predictor:    classifier,
		Models:       registry,
		Sessions:     sessions,
		Metrics:      m,
		DefaultModel: cfg.Live.DefaultModel,
	})
	if err != nil {
		logger.Error("main", "%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx)

	logger.Info("main", "endpoints: GET / | GET /health | GET /models | POST /predict | POST /classify | /sessions | GET /metrics")
	if err := srv.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("main", "server failed: %v", err)
		os.Exit(1)
	}
}
