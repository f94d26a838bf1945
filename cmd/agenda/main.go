package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/agendahq/agenda-go/config"
	"github.com/agendahq/agenda-go/internal/adminhttp"
	"github.com/agendahq/agenda-go/internal/engine"
	"github.com/agendahq/agenda-go/internal/handler"
	"github.com/agendahq/agenda-go/internal/health"
	ctxlog "github.com/agendahq/agenda-go/internal/log"
	"github.com/agendahq/agenda-go/internal/lifecycle"
	"github.com/agendahq/agenda-go/internal/metrics"
	"github.com/agendahq/agenda-go/internal/store"
	"github.com/agendahq/agenda-go/internal/webhook"
)

const maxWorkerIDLen = 128

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.WorkerID == "" {
		hostname, _ := os.Hostname()
		id := fmt.Sprintf("%s-%d-%s", hostname, os.Getpid(), uuid.NewString())
		if len(id) > maxWorkerIDLen {
			id = id[:maxWorkerIDLen]
		}
		cfg.WorkerID = id
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	logger.Info("db connected")

	pgStore := store.NewPostgresStore(pool)
	if cfg.EnsureIndexesOnStartup {
		if err := pgStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("ensure schema: %v", err)
		}
		logger.Info("schema ensured")
	}

	registry, err := handler.New(webhook.New(logger))
	if err != nil {
		log.Fatalf("handler registry: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	eng := engine.New(pgStore, registry, logger, cfg.Engine())
	adminRouter := adminhttp.NewRouter(logger, adminhttp.NewHandler(eng, checker))
	adminServer := adminhttp.NewServer(":"+cfg.AdminPort, adminRouter, logger)

	stopAll, err := lifecycle.Bind(ctx, eng, adminServer)
	if err != nil {
		log.Fatalf("lifecycle bind: %v", err)
	}

	logger.Info("agenda started", "worker_id", cfg.WorkerID, "admin_port", cfg.AdminPort)
	<-ctx.Done()
	stop()
	logger.Info("shutting down...")
	stopAll()
	logger.Info("agenda stopped")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
