package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/post-relay/app/api"
	"github.com/lysyi3m/post-relay/app/cfg"
	"github.com/lysyi3m/post-relay/app/database"
	"github.com/lysyi3m/post-relay/app/metrics"
	"github.com/lysyi3m/post-relay/app/post"
	"github.com/lysyi3m/post-relay/app/store"
	"github.com/lysyi3m/post-relay/app/tasks"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Post Relay", "version", appCfg.Version, "port", appCfg.Port)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	policy, err := post.LoadPolicy(appCfg.PolicyFile)
	if err != nil {
		slog.Error("Failed to load redirect policy", "file", appCfg.PolicyFile, "error", err)
		os.Exit(1)
	}

	registry := prom.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	storeClient := store.NewClient(appCfg.GraphQLEndpoint, &http.Client{}, appCfg.UserAgent, appCfg.GetStoreTimeout())
	storeClient.SetObserver(recorder)

	resolver := post.NewResolver(storeClient, storeClient.Endpoint(), policy)
	formatter := post.NewFormatter(appCfg.Locale)

	resolutionRepo := database.NewResolutionRepository(db)

	scheduler := tasks.NewScheduler(resolutionRepo, appCfg.GetSchedulerInterval(), appCfg.WorkerCount, appCfg.GetLogRetention())
	scheduler.Start()
	defer scheduler.Stop()
	slog.Info("Scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.GetSchedulerInterval())

	handler := api.NewHandler(resolver, formatter, policy, resolutionRepo, scheduler, recorder, appCfg.Version)
	router, err := api.NewServer(handler, appCfg.APIAccessKey, recorder.Handler())
	if err != nil {
		slog.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", httpServer.Addr, "endpoint", appCfg.GraphQLEndpoint)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}
}
