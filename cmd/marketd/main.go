package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/campusmarket-client/api/routes"
	"github.com/angelmondragon/campusmarket-client/internal/app"
	"github.com/angelmondragon/campusmarket-client/pkg/config"
	"github.com/angelmondragon/campusmarket-client/pkg/instance"
	"github.com/angelmondragon/campusmarket-client/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "marketd"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "marketd",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	container, err := app.New(ctx, app.Params{
		Config:     cfg,
		Logger:     logg,
		Registerer: registry,
	})
	if err != nil {
		logg.Error(ctx, "failed to build client state", err)
		os.Exit(1)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logg.Error(context.Background(), "error releasing client state", err)
		}
	}()

	addr := net.JoinHostPort("127.0.0.1", cfg.App.Port)
	logCtx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"backend":  cfg.API.BaseURL,
		"storage":  cfg.Storage.NormalizedDriver(),
		"instance": instance.GetID(),
	})
	logg.Info(logCtx, "starting marketd")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, container, registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "marketd stopped unexpectedly", err)
		}
		return
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down marketd")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(logCtx, "graceful shutdown failed", err)
	}
}
