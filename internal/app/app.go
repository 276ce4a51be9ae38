// Package app wires configuration into the scoring engine. Both the HTTP
// server and the recalc CLI go through the same bootstrap so they score
// identically.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/config"
	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/infrastructure/ai"
	"github.com/mmrshk/purio-backend/internal/infrastructure/cache"
	"github.com/mmrshk/purio-backend/internal/infrastructure/off"
	"github.com/mmrshk/purio-backend/internal/infrastructure/persistence"
	"github.com/mmrshk/purio-backend/internal/infrastructure/reference"
	"github.com/mmrshk/purio-backend/internal/usecase"
)

// Engine bundles the wired scorer with the optional collaborators the
// delivery layers need.
type Engine struct {
	Scorer   *usecase.ProductScorer
	Repo     domain.ProductRepository // nil when no database is configured
	inferrer *ai.GeminiInferrer
}

// Close releases held client connections.
func (e *Engine) Close() {
	if e.inferrer != nil {
		e.inferrer.Close()
	}
}

// Build assembles the full scoring pipeline from configuration. The database
// and the AI inferrer are both optional; everything else is required.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Engine, error) {
	ingredients, err := reference.SharedIngredientTable(cfg.Reference.IngredientsPath)
	if err != nil {
		return nil, fmt.Errorf("loading ingredient table: %w", err)
	}
	additives, err := reference.SharedAdditiveTable(cfg.Reference.AdditivesPath)
	if err != nil {
		return nil, fmt.Errorf("loading additive table: %w", err)
	}
	log.Info().
		Int("ingredients", ingredients.Len()).
		Int("additives", additives.Len()).
		Msg("reference tables loaded")

	offClient := off.NewClient(off.Config{
		BaseURL:        cfg.OFF.BaseURL,
		UserAgent:      cfg.OFF.UserAgent,
		Timeout:        cfg.OFF.Timeout,
		RequestsPerSec: cfg.OFF.RequestsPerSec,
	}, log.With().Str("component", "off").Logger())
	upstream := off.NewCachedLookup(offClient, cache.NewMemoryCache(), cfg.Cache.TTL,
		log.With().Str("component", "off-cache").Logger())

	engine := &Engine{}

	var inferrer domain.IngredientInferrer
	if cfg.Gemini.APIKey != "" {
		gemini, err := ai.NewGeminiInferrer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model,
			log.With().Str("component", "ai").Logger())
		if err != nil {
			return nil, fmt.Errorf("creating gemini inferrer: %w", err)
		}
		engine.inferrer = gemini
		inferrer = gemini
	} else {
		log.Info().Msg("gemini api key not set, ingredient inference disabled")
	}

	engine.Scorer = usecase.NewProductScorer(
		usecase.NewClassifier(ingredients, usecase.ClassifierConfig{
			SimilarityThreshold: cfg.Scoring.SimilarityThreshold,
		}, log.With().Str("component", "classifier").Logger()),
		usecase.NewNovaService(upstream, usecase.NovaConfig{}, log.With().Str("component", "nova").Logger()),
		usecase.NewNutriService(upstream, log.With().Str("component", "nutri").Logger()),
		usecase.NewAdditivesService(additives, log.With().Str("component", "additives").Logger()),
		usecase.NewCombiner(usecase.CombinerConfig{
			NutriWeight:     cfg.Scoring.NutriWeight,
			AdditivesWeight: cfg.Scoring.AdditivesWeight,
			NovaWeight:      cfg.Scoring.NovaWeight,
			HighRiskCap:     cfg.Scoring.HighRiskCap,
		}),
		inferrer,
		log.With().Str("component", "scorer").Logger(),
	)

	if cfg.Database.DSN != "" {
		db, err := persistence.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		engine.Repo = persistence.NewProductRepository(db, log.With().Str("component", "repo").Logger())
	} else {
		log.Info().Msg("database dsn not set, running without persistence")
	}

	return engine, nil
}
