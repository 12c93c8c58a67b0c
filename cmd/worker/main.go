// Command worker drains the jobs and build queues and performs the actual
// Docker image builds and sandboxed executions. It holds no HTTP surface;
// everything it needs arrives over Redis and everything it produces lands
// back in the store.
package main

import (
	"context"
	"os/signal"
	"syscall"

	"yantra/internal/broker"
	"yantra/internal/config"
	"yantra/internal/logging"
	"yantra/internal/sandbox"
	"yantra/internal/store"
	"yantra/internal/worker"

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

	ex, err := sandbox.NewExecutor(cfg.Sandbox)
	if err != nil {
		log.Fatal("init sandbox executor", zap.Error(err))
	}
	defer ex.Close()

	w := worker.New(st, br, ex)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("worker starting", zap.String("jobs_queue", br.JobsQueue()), zap.String("build_queue", br.BuildQueue()))
	w.Reconcile(ctx)
	w.Run(ctx)
	log.Info("worker stopped")
}
