package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"medrec/internal/patient/handler"
	"medrec/internal/patient/retention"
	"medrec/internal/patient/service"
	"medrec/internal/patient/store"
	"medrec/internal/platform/config"
	"medrec/internal/platform/httpserver"
	"medrec/internal/platform/logger"
	"medrec/internal/platform/metrics"
	"medrec/internal/platform/middleware"
)

// main wires high-level dependencies and keeps the server lifecycle
// small. Business logic lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	st, err := openStore(cfg)
	if err != nil {
		log.Error("open store", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	patients := service.New(st, log, m)
	sweeper := retention.New(st, cfg.RetentionMaxAge, cfg.SweepInterval, log, m)

	router := chi.NewRouter()
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(log))
	handler.New(patients, log).Register(router)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting medrec", "addr", cfg.Addr, "driver", cfg.DBDriver)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := sweeper.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
	}
	if err := st.Close(); err != nil {
		log.Error("close store", "error", err)
	}
	log.Info("medrec stopped")
}

func openStore(cfg config.Server) (store.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store.NewPostgres(db)
	default:
		return store.NewSQLite(cfg.DBPath)
	}
}
