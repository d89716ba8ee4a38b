package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/taxiwatch/taxiwatch-backend/internal/archive"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/consumers"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/httputil"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/messaging"
	"github.com/taxiwatch/taxiwatch-backend/pkg/metrics"
)

func main() {
	cfg, err := config.LoadWithValidation("archive-worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("archive-worker", cfg.Server.Environment)
	log.Info().Msg("starting archive worker")

	if cfg.RabbitMQ.URL == "" {
		log.Fatal().Msg("TAXIWATCH_RABBITMQ_URL is required by the archive worker")
	}

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s3Archive, err := archive.NewS3Archive(ctx, &cfg.Archive, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create archive")
	}

	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	if err := rmq.DeclareDeadLetterQueue("archive-worker"); err != nil {
		log.Fatal().Err(err).Msg("failed to declare dead letter queue")
	}

	archiveConsumer, err := consumers.NewArchiveConsumer(rmq, s3Archive, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create archive consumer")
	}

	if err := archiveConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start archive consumer")
	}

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "archive-worker",
			"rabbitmq": rmq.Health(),
		})
	})
	r.Handle("/metrics", metrics.Handler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadTimeout: cfg.Server.ReadTimeout}

	go func() {
		log.Info().Str("addr", addr).Msg("health endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down archive worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("archive worker stopped")
}
