// Command api runs the yantra HTTP surface: submission intake, compiler and
// template administration, health and Prometheus metrics. It owns no
// execution state of its own - code runs in the worker tier - but it does
// seed the template catalog on startup so a fresh deployment has something
// to submit against.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yantra/internal/api"
	"yantra/internal/broker"
	"yantra/internal/catalog"
	"yantra/internal/config"
	"yantra/internal/logging"
	"yantra/internal/metrics"
	"yantra/internal/runtimesvc"
	"yantra/internal/stage"
	"yantra/internal/store"
	"yantra/internal/submission"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	logging.Init()
	defer logging.Sync()
	log := logging.L()

	cfg := config.Load()

	st, err := store.Open(cfg.Database)
	if err != nil {
		log.Fatal("open store", zap.Error(err))
	}
	defer st.Close()

	br, err := broker.New(cfg.Redis)
	if err != nil {
		log.Fatal("connect broker", zap.Error(err))
	}
	defer br.Close()

	if summary, err := catalog.Seed(st); err != nil {
		log.Fatal("seed catalog", zap.Error(err))
	} else {
		log.Info("catalog ready", zap.Int("added", summary.Added), zap.Int("skipped", summary.Skipped))
	}

	stager := stage.New(cfg.Upload, cfg.Sandbox.JobsDir)
	submissions := submission.New(st, br, stager)
	runtimes := runtimesvc.New(st, br)

	server := api.NewServer(submissions, runtimes, st, cfg.Upload.MaxTotalBytes)
	router := api.NewRouter(server, cfg.CORSOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewPoolCollector(st, br, 15*time.Second)
	collector.Start(ctx)

	metrics.Get().SetBuildInfo(getEnv("VERSION", "dev"), getEnv("GIT_COMMIT", "unknown"), getEnv("BUILD_DATE", "unknown"))

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", zap.String("addr", httpSrv.Addr), zap.String("environment", cfg.Environment))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
