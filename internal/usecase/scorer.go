package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/infrastructure/reference"
)

// ScoreStats summarizes how much of the input the engine could use. They are
// reported alongside the result, never persisted.
type ScoreStats struct {
	MatchedIngredients   int  `json:"matchedIngredients"`
	UnmatchedIngredients int  `json:"unmatchedIngredients"`
	RejectedTokens       int  `json:"rejectedTokens"`
	UnmappedAdditives    int  `json:"unmappedAdditives"`
	InferredIngredients  bool `json:"inferredIngredients"`
}

// ScoreOutcome bundles the persisted result with its working data.
type ScoreOutcome struct {
	Product *domain.ProductInput    `json:"-"`
	Result  *domain.ScoreResult     `json:"result"`
	Matches []domain.IngredientMatch `json:"matches,omitempty"`
	Stats   ScoreStats              `json:"stats"`
}

// BatchStats aggregates a batch run.
type BatchStats struct {
	Total       int `json:"total"`
	Scored      int `json:"scored"`      // final score computed
	Unavailable int `json:"unavailable"` // scored but at least one sub-score absent
}

// ProductScorer wires the classifier, the three sub-score services and the
// combiner into the one call the delivery layers use. It holds no per-call
// state and is safe for concurrent use.
type ProductScorer struct {
	classifier *Classifier
	nova       *NovaService
	nutri      *NutriService
	additives  *AdditivesService
	combiner   *Combiner
	inferrer   domain.IngredientInferrer
	log        zerolog.Logger
}

// NewProductScorer assembles the scoring pipeline. inferrer may be nil, in
// which case products without ingredient text simply have no Nova verdict.
func NewProductScorer(
	classifier *Classifier,
	nova *NovaService,
	nutri *NutriService,
	additives *AdditivesService,
	combiner *Combiner,
	inferrer domain.IngredientInferrer,
	log zerolog.Logger,
) *ProductScorer {
	return &ProductScorer{
		classifier: classifier,
		nova:       nova,
		nutri:      nutri,
		additives:  additives,
		combiner:   combiner,
		inferrer:   inferrer,
		log:        log,
	}
}

// Score computes all sub-scores for one product. It never fails: anything
// that cannot be established comes back as an absent score, and the caller
// decides what absence means.
func (s *ProductScorer) Score(ctx context.Context, product *domain.ProductInput) *ScoreOutcome {
	outcome := &ScoreOutcome{Product: product}

	text := product.IngredientsText
	if strings.TrimSpace(text) == "" && s.inferrer != nil && product.Name != "" {
		if inferred, err := s.inferrer.InferIngredients(ctx, product.Name); err != nil {
			s.log.Warn().Str("product", product.Name).Err(err).Msg("ingredient inference failed, scoring without ingredients")
		} else if len(inferred) > 0 {
			text = strings.Join(inferred, ", ")
			outcome.Stats.InferredIngredients = true
		}
	}

	classification := s.classifier.Classify(text)
	outcome.Matches = classification.Matches
	outcome.Stats.MatchedIngredients = len(classification.Matches)
	outcome.Stats.UnmatchedIngredients = len(classification.Unmatched)
	outcome.Stats.RejectedTokens = len(classification.Rejected)

	tags := mergeAdditiveTags(product.AdditiveTags, classification.AdditiveCandidates)

	novaRes := s.nova.Aggregate(ctx, product, classification.Matches)
	nutriRes := s.nutri.Compute(ctx, product)
	additivesRes := s.additives.Compute(tags)
	outcome.Stats.UnmappedAdditives = len(additivesRes.Unmapped)

	outcome.Result = s.combiner.Combine(novaRes, nutriRes, additivesRes)

	s.log.Info().
		Str("product", product.Name).
		Bool("available", outcome.Result.Available()).
		Bool("highRisk", outcome.Result.HasHighRiskAdditive).
		Msg("product scored")
	return outcome
}

// ScoreBatch scores each product independently. One product's missing data
// never affects the others, so the outcome slice always lines up with the
// input.
func (s *ProductScorer) ScoreBatch(ctx context.Context, products []domain.ProductInput) ([]*ScoreOutcome, BatchStats) {
	outcomes := make([]*ScoreOutcome, 0, len(products))
	stats := BatchStats{Total: len(products)}
	for i := range products {
		outcome := s.Score(ctx, &products[i])
		outcomes = append(outcomes, outcome)
		if outcome.Result.Available() {
			stats.Scored++
		} else {
			stats.Unavailable++
		}
	}
	return outcomes, stats
}

// mergeAdditiveTags combines persisted tags with codes the classifier pulled
// out of qualifiers, deduplicated case-insensitively with order preserved.
func mergeAdditiveTags(stored, extracted []string) []string {
	seen := make(map[string]bool, len(stored)+len(extracted))
	var merged []string
	for _, tag := range append(append([]string{}, stored...), extracted...) {
		key := reference.NormalizeAdditiveCode(tag)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, tag)
	}
	return merged
}
