package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/textnorm"
)

// novaScoreMap converts a product-level Nova group to a 0-100 score.
var novaScoreMap = map[int]int{1: 100, 2: 80, 3: 50, 4: 20}

// Name/category keywords for the pre-analysis shortcuts. Plain water is group
// 1 by definition; alcoholic beverages land in group 3 without looking at the
// ingredient list.
var (
	defaultWaterKeywords   = []string{"apa plata", "apa minerala", "still water", "mineral water", "sparkling water", "spring water"}
	defaultAlcoholKeywords = []string{"bere", "beer", "vin ", "wine", "vodca", "vodka", "whisky", "whiskey", "rom ", "rum ", "gin ", "tuica", "palinca", "cidru", "cider", "liqueur", "lichior"}
)

// NovaConfig carries the special-case keyword lists.
type NovaConfig struct {
	WaterKeywords   []string
	AlcoholKeywords []string
}

func (c NovaConfig) withDefaults() NovaConfig {
	if len(c.WaterKeywords) == 0 {
		c.WaterKeywords = defaultWaterKeywords
	}
	if len(c.AlcoholKeywords) == 0 {
		c.AlcoholKeywords = defaultAlcoholKeywords
	}
	return c
}

// NovaService derives the product-level Nova group. Evaluation order is part
// of the contract: special cases, then upstream lookup, then local
// aggregation over classified ingredients.
type NovaService struct {
	upstream domain.UpstreamLookup
	cfg      NovaConfig
	log      zerolog.Logger
}

// NewNovaService creates a Nova aggregator. upstream may be nil, in which
// case only special cases and local aggregation apply.
func NewNovaService(upstream domain.UpstreamLookup, cfg NovaConfig, log zerolog.Logger) *NovaService {
	return &NovaService{upstream: upstream, cfg: cfg.withDefaults(), log: log}
}

// Aggregate returns the Nova result for a product, or nil when no group can
// be established (no special case, no upstream hit, no matched ingredients).
func (s *NovaService) Aggregate(ctx context.Context, product *domain.ProductInput, matches []domain.IngredientMatch) *domain.NovaResult {
	if group, ok := s.specialCase(product); ok {
		return novaResult(group, domain.SourceSpecialCase)
	}

	if group, ok := s.lookupUpstream(ctx, product); ok {
		return novaResult(group, domain.SourceAPI)
	}

	if group, ok := aggregateGroups(matches); ok {
		return novaResult(group, domain.SourceLocal)
	}

	s.log.Debug().Str("product", product.Name).Msg("nova score not available")
	return nil
}

// specialCase applies the water/alcohol shortcuts on the product name and
// category, diacritic-folded so "apă plată" matches too.
func (s *NovaService) specialCase(product *domain.ProductInput) (int, bool) {
	haystack := textnorm.Fold(product.Name) + " " + textnorm.Fold(product.Category) + " "
	for _, kw := range s.cfg.WaterKeywords {
		if strings.Contains(haystack, textnorm.Fold(kw)) {
			return 1, true
		}
	}
	// bare "apa"/"water" only counts as a whole word; substring matching
	// would drag in anything containing those letters
	for _, word := range strings.Fields(haystack) {
		if word == "apa" || word == "water" {
			return 1, true
		}
	}
	for _, kw := range s.cfg.AlcoholKeywords {
		if strings.Contains(haystack, textnorm.Fold(kw)) {
			return 3, true
		}
	}
	return 0, false
}

func (s *NovaService) lookupUpstream(ctx context.Context, product *domain.ProductInput) (int, bool) {
	if s.upstream == nil {
		return 0, false
	}
	if product.Barcode != "" {
		if up, err := s.upstream.ProductByBarcode(ctx, product.Barcode); err == nil && validNovaGroup(up.NovaGroup) {
			return up.NovaGroup, true
		}
	}
	if product.Name != "" {
		if up, err := s.upstream.SearchByName(ctx, product.Name); err == nil && validNovaGroup(up.NovaGroup) {
			return up.NovaGroup, true
		}
	}
	return 0, false
}

// aggregateGroups reduces the distinct Nova groups of the matched ingredients
// to one product group. Worst-ingredient dominates; a product mixing
// unprocessed (1) and culinary (2) ingredients counts as processed food (3).
// No matches means no verdict.
func aggregateGroups(matches []domain.IngredientMatch) (int, bool) {
	present := map[int]bool{}
	for _, m := range matches {
		if validNovaGroup(m.NovaGroup) {
			present[m.NovaGroup] = true
		}
	}
	switch {
	case len(present) == 0:
		return 0, false
	case present[4]:
		return 4, true
	case present[3]:
		return 3, true
	case present[1] && present[2]:
		return 3, true
	case present[2]:
		return 2, true
	default:
		return 1, true
	}
}

func validNovaGroup(g int) bool { return g >= 1 && g <= 4 }

func novaResult(group int, source string) *domain.NovaResult {
	return &domain.NovaResult{Group: group, Score: novaScoreMap[group], Source: source}
}
