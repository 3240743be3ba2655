package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/process-agent/internal/api"
	"github.com/povarna/generative-ai-agents/process-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/process-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/process-agent/internal/setup/logger"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

const (
	shutdownGrace = 30 * time.Second
	shutdownDrain = 5 * time.Second
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg := setup.LoadConfig()

	// Setup logging
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Logger = appLogger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.Wire(ctx, cfg, &appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// API
	handler := api.NewHandler(deps.Processor, deps.Logger)
	container := restful.NewContainer()
	container.Filter(middleware.Logger)
	container.Filter(middleware.RecoverPanic)
	container.Filter(middleware.LimitBody(cfg.MaxBodyBytes))
	api.RegisterRoutes(container, handler)
	api.RegisterOpenAPI(container)

	// CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	server := api.NewServer(addr, corsHandler.Handler(container))

	go func() {
		log.Info().Str("address", addr).Str("model", deps.ModelID).Msg("Starting Process Agent API")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	if err := server.Shutdown(shutdownGrace, shutdownDrain); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
