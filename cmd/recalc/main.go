package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mmrshk/purio-backend/config"
	"github.com/mmrshk/purio-backend/internal/app"
	"github.com/mmrshk/purio-backend/internal/logger"
	"github.com/mmrshk/purio-backend/internal/usecase"
)

var (
	flagProductID string
	flagBatchSize int
	flagAll       bool
	flagDryRun    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recompute health scores for stored products",
		Long: `recalc recomputes the processing, nutritional and additive scores for
products already scraped into the database. By default it processes one
batch of products that have no final score yet.`,
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Flags().StringVar(&flagProductID, "product-id", "", "rescore a single product by id")
	rootCmd.Flags().IntVar(&flagBatchSize, "batch-size", 100, "products per batch")
	rootCmd.Flags().BoolVar(&flagAll, "all", false, "keep processing batches until none remain")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "compute and log scores without persisting them")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "recalc: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "purio-recalc",
	})

	ctx := cmd.Context()
	engine, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer engine.Close()

	if engine.Repo == nil {
		return errors.New("recalc needs a database, set PURIO_DATABASE_DSN")
	}

	if flagProductID != "" {
		return rescoreOne(ctx, engine, log)
	}
	return rescoreBatches(ctx, engine, log)
}

func rescoreOne(ctx context.Context, engine *app.Engine, log zerolog.Logger) error {
	product, err := engine.Repo.GetByID(ctx, flagProductID)
	if err != nil {
		return fmt.Errorf("loading product %s: %w", flagProductID, err)
	}

	outcome := engine.Scorer.Score(ctx, product)
	logOutcome(log, outcome)

	if flagDryRun {
		log.Info().Msg("dry run, scores not persisted")
		return nil
	}
	return engine.Repo.UpdateScores(ctx, flagProductID, outcome.Result)
}

func rescoreBatches(ctx context.Context, engine *app.Engine, log zerolog.Logger) error {
	var total, scored, failed int

	for {
		products, err := engine.Repo.ListMissingFinalScore(ctx, flagBatchSize)
		if err != nil {
			return fmt.Errorf("listing products: %w", err)
		}
		if len(products) == 0 {
			break
		}

		outcomes, stats := engine.Scorer.ScoreBatch(ctx, products)
		total += stats.Total
		scored += stats.Scored

		for _, outcome := range outcomes {
			logOutcome(log, outcome)
			if flagDryRun {
				continue
			}
			if err := engine.Repo.UpdateScores(ctx, outcome.Product.ID, outcome.Result); err != nil {
				// one bad row must not sink the batch
				log.Error().Str("product_id", outcome.Product.ID).Err(err).Msg("persisting scores failed")
				failed++
			}
		}

		// products without a computable final score stay unscored; without
		// --all a single pass is all we do, with it we stop once a full
		// batch yields nothing new
		if !flagAll || stats.Scored == 0 {
			break
		}
		if flagDryRun {
			// dry runs never shrink the unscored set, one batch is enough
			break
		}
	}

	log.Info().
		Int("total", total).
		Int("scored", scored).
		Int("persist_failures", failed).
		Bool("dry_run", flagDryRun).
		Msg("recalculation finished")
	return nil
}

func logOutcome(log zerolog.Logger, outcome *usecase.ScoreOutcome) {
	event := log.Info().
		Str("product_id", outcome.Product.ID).
		Str("name", outcome.Product.Name).
		Int("matched", outcome.Stats.MatchedIngredients).
		Bool("inferred", outcome.Stats.InferredIngredients)

	if outcome.Result.Available() {
		event = event.
			Float64("final", *outcome.Result.FinalScore).
			Int("display", *outcome.Result.DisplayScore).
			Bool("high_risk", outcome.Result.HasHighRiskAdditive)
	} else {
		event = event.Str("final", "not available")
	}
	event.Msg("scored")
}
