package usecase

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/infrastructure/reference"
)

// AdditivesService scores a product's additive load from its tag list and a
// risk tier table.
type AdditivesService struct {
	table domain.AdditiveTable
	log   zerolog.Logger
}

func NewAdditivesService(table domain.AdditiveTable, log zerolog.Logger) *AdditivesService {
	return &AdditivesService{table: table, log: log}
}

// Compute averages the per-additive risk scores. Tags missing from the table
// are skipped rather than penalized; a product with no recognized additives
// scores a clean 100.
func (s *AdditivesService) Compute(tags []string) *domain.AdditivesResult {
	result := &domain.AdditivesResult{Score: 100}
	if len(tags) == 0 {
		return result
	}

	sum := 0
	counted := 0
	for _, tag := range tags {
		code := reference.NormalizeAdditiveCode(tag)
		if code == "" {
			continue
		}
		tier, ok := s.table.RiskTier(code)
		if !ok {
			s.log.Debug().Str("additive", code).Msg("additive not in risk table, skipping")
			result.Unmapped = append(result.Unmapped, code)
			continue
		}
		sum += tier.Score()
		counted++
		if tier == domain.RiskHigh {
			result.HasHighRisk = true
		}
	}

	if counted > 0 {
		result.Score = int(math.Round(float64(sum) / float64(counted)))
	}
	return result
}
