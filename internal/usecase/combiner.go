package usecase

import (
	"math"

	"github.com/mmrshk/purio-backend/internal/domain"
)

// CombinerConfig carries the sub-score weights and the high-risk display cap.
type CombinerConfig struct {
	NutriWeight     float64
	AdditivesWeight float64
	NovaWeight      float64
	HighRiskCap     int
}

func (c CombinerConfig) withDefaults() CombinerConfig {
	if c.NutriWeight == 0 && c.AdditivesWeight == 0 && c.NovaWeight == 0 {
		c.NutriWeight = 0.4
		c.AdditivesWeight = 0.3
		c.NovaWeight = 0.3
	}
	if c.HighRiskCap == 0 {
		c.HighRiskCap = 49
	}
	return c
}

// Combiner folds the three sub-scores into the final weighted health score.
type Combiner struct {
	cfg CombinerConfig
}

func NewCombiner(cfg CombinerConfig) *Combiner {
	return &Combiner{cfg: cfg.withDefaults()}
}

// Combine assembles a ScoreResult from whichever sub-scores are available.
// The final score exists only when all three do; a missing sub-score leaves
// FinalScore and DisplayScore nil so callers can tell "bad" from "unknown".
func (c *Combiner) Combine(nova *domain.NovaResult, nutri *domain.NutriResult, additives *domain.AdditivesResult) *domain.ScoreResult {
	result := &domain.ScoreResult{}

	if nova != nil {
		result.NovaScore = domain.IntPtr(nova.Score)
		result.NovaGroup = domain.IntPtr(nova.Group)
		result.NovaSource = nova.Source
	}
	if nutri != nil {
		result.NutriScore = domain.IntPtr(nutri.Score)
		result.NutriGrade = nutri.Grade
		result.NutriSource = nutri.Source
		result.NutriApproximate = nutri.Approximate
	}
	if additives != nil {
		result.AdditivesScore = domain.IntPtr(additives.Score)
		result.HasHighRiskAdditive = additives.HasHighRisk
	}

	if nova == nil || nutri == nil || additives == nil {
		return result
	}

	final := float64(nutri.Score)*c.cfg.NutriWeight +
		float64(additives.Score)*c.cfg.AdditivesWeight +
		float64(nova.Score)*c.cfg.NovaWeight
	result.FinalScore = &final

	display := roundHalfDown(final)
	if additives.HasHighRisk && display > c.cfg.HighRiskCap {
		display = c.cfg.HighRiskCap
	}
	result.DisplayScore = domain.IntPtr(display)
	return result
}

// roundHalfDown rounds to the nearest integer with exact halves going down,
// so 69.5 displays as 69.
func roundHalfDown(x float64) int {
	return int(math.Ceil(x - 0.5))
}
