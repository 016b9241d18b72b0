// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/KaranNegi0102/EventManagementAPI/internal/config"
	"github.com/KaranNegi0102/EventManagementAPI/internal/database"
	"github.com/KaranNegi0102/EventManagementAPI/internal/handler"
	"github.com/KaranNegi0102/EventManagementAPI/internal/repository"
	"github.com/KaranNegi0102/EventManagementAPI/internal/service"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()
	logger := config.NewLogger(cfg.Logging)

	// ── 1. Connect to PostgreSQL and apply migrations ─────────────────────
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	if err := database.MigrateUp(cfg.Database.URL(), cfg.Database.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("schema migration failed")
	}

	// ── 2. Wire up layers ────────────────────────────────────────────────
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	eventSvc := service.NewEventService(eventRepo, regRepo)
	eventHandler := handler.NewEventHandler(eventSvc, logger)

	// ── 3. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.AccessLog(logger))
	r.Use(handler.CORS)

	r.Get("/health", handler.HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", eventHandler.CreateEvent)
		r.Get("/upcoming", eventHandler.ListUpcomingEvents)
		r.Get("/{id}", eventHandler.GetEvent)
		r.Post("/{id}/register", eventHandler.Register)
		r.Delete("/{id}/register/{userId}", eventHandler.CancelRegistration)
		r.Get("/{id}/stats", eventHandler.GetEventStats)
	})

	// ── 4. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
