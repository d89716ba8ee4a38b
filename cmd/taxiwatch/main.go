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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taxiwatch/taxiwatch-backend/internal/admin"
	"github.com/taxiwatch/taxiwatch-backend/internal/archive"
	"github.com/taxiwatch/taxiwatch-backend/internal/navigation"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/events"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/gateway"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/handler"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/photo"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/repository"
	"github.com/taxiwatch/taxiwatch-backend/internal/report/workflow"
	"github.com/taxiwatch/taxiwatch-backend/pkg/config"
	"github.com/taxiwatch/taxiwatch-backend/pkg/httputil"
	"github.com/taxiwatch/taxiwatch-backend/pkg/i18n"
	"github.com/taxiwatch/taxiwatch-backend/pkg/logger"
	"github.com/taxiwatch/taxiwatch-backend/pkg/messaging"
	"github.com/taxiwatch/taxiwatch-backend/pkg/metrics"
)

func main() {
	// Fails fast in production if required config is missing
	cfg, err := config.LoadWithValidation("taxiwatch")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("taxiwatch", cfg.Server.Environment)
	log.Info().Msg("starting TaxiWatch")

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeBackend, err := repository.NewBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open report store")
	}
	defer closeBackend()

	store := repository.NewReportStore(backend, log)
	loaded := store.Load(ctx)
	log.Info().Int("reports", len(loaded)).Str("backend", backend.Name()).Msg("watchlist loaded")

	client, err := gateway.New(&cfg.AI, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create AI gateway")
	}
	log.Info().Str("provider", client.Name()).Msg("AI gateway ready")

	// An empty broker URL disables event publishing
	var rmq *messaging.RabbitMQ
	publisher := events.NewWithPublisher(messaging.NoopPublisher{}, log)
	if cfg.RabbitMQ.URL != "" {
		rmq, err = messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		defer rmq.Close()

		publisher, err = events.NewReportEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	var archiver archive.Archiver
	if cfg.Archive.Enabled() {
		s3Archive, err := archive.NewS3Archive(ctx, &cfg.Archive, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create archive")
		}
		archiver = s3Archive
	}

	adminService, err := admin.NewService(&cfg.Admin, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid admin configuration")
	}

	wf := workflow.New(client, client, store, log,
		workflow.WithPhotoNormalizer(photo.NewNormalizer(&cfg.Photo)),
		workflow.WithPublisher(publisher),
	)
	nav := navigation.New()

	handlers := &handler.Handlers{
		Workflow:   handler.NewWorkflowHandler(wf, nav, cfg.Photo.MaxBytes*2, log),
		Reports:    handler.NewReportHandler(store, log),
		Navigation: handler.NewNavigationHandler(nav, wf, log),
		Admin:      handler.NewAdminHandler(adminService, store, archiver, log),
	}

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "Accept-Language"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"status":  "healthy",
			"service": "taxiwatch",
			"store":   store.Health(),
			"gateway": client.Name(),
		}
		if rmq != nil {
			status["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, status)
	})
	r.Handle("/metrics", metrics.Handler())

	handlers.Mount(r, httputil.AdminAuth(adminService))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
