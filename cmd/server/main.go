package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mmrshk/purio-backend/config"
	"github.com/mmrshk/purio-backend/internal/app"
	httpDelivery "github.com/mmrshk/purio-backend/internal/delivery/http"
	"github.com/mmrshk/purio-backend/internal/logger"
)

func main() {
	// .env is a development convenience; absence is fine
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "purio-backend",
	})

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("starting purio backend")

	engine, err := app.Build(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scoring engine")
	}
	defer engine.Close()

	handler := httpDelivery.NewHandler(engine.Scorer, engine.Repo, log.With().Str("component", "http").Logger())
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
