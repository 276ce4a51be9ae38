package domain

import (
	"context"
	"time"
)

// UpstreamScores is what an upstream food-database lookup yields. NovaGroup 0
// and an empty NutriGrade mean the respective value was not published.
type UpstreamScores struct {
	NovaGroup  int
	NutriGrade string // "a".."e"
}

// UpstreamLookup queries a pre-computed food database (Open Food Facts) by
// barcode or free-text name. Any error means "fall back to local computation";
// the engine never surfaces it.
type UpstreamLookup interface {
	ProductByBarcode(ctx context.Context, barcode string) (UpstreamScores, error)
	SearchByName(ctx context.Context, name string) (UpstreamScores, error)
}

// IngredientRef is one row of the ingredient reference table.
type IngredientRef struct {
	Name      string // canonical English name
	NameRO    string // Romanian alias
	NovaGroup int    // 1..4
}

// IngredientTable is the read-only reference the classifier matches against.
// Keys passed to LookupExact must already be case-folded and diacritic-free.
type IngredientTable interface {
	LookupExact(normalized string) (IngredientRef, bool)
	Entries() []IngredientRef
}

// RiskTier buckets an additive by safety.
type RiskTier string

const (
	RiskFree     RiskTier = "free"
	RiskLow      RiskTier = "low"
	RiskModerate RiskTier = "moderate"
	RiskHigh     RiskTier = "high"
)

// Score maps a tier to its contribution to the additives sub-score.
func (t RiskTier) Score() int {
	switch t {
	case RiskFree:
		return 100
	case RiskLow:
		return 75
	case RiskModerate:
		return 50
	case RiskHigh:
		return 0
	}
	return 0
}

// Valid reports whether t is one of the four known tiers.
func (t RiskTier) Valid() bool {
	switch t {
	case RiskFree, RiskLow, RiskModerate, RiskHigh:
		return true
	}
	return false
}

// AdditiveTable maps normalized additive codes ("e150a") to risk tiers.
type AdditiveTable interface {
	RiskTier(code string) (RiskTier, bool)
}

// IngredientInferrer guesses an ingredient list from a product name when no
// scraped text exists. Failures degrade to "no ingredients", never upward.
type IngredientInferrer interface {
	InferIngredients(ctx context.Context, productName string) ([]string, error)
}

// ProductRepository is the persistence collaborator. The engine only knows
// this flat surface, not the schema behind it.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*ProductInput, error)
	ListMissingFinalScore(ctx context.Context, limit int) ([]ProductInput, error)
	UpdateScores(ctx context.Context, id string, result *ScoreResult) error
}

// CacheRepository defines the interface for caching upstream lookups.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
