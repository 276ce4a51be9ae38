package usecase

import (
	"context"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
)

// kcalToKJ converts kilocalories to kilojoules for the energy bracket table.
const kcalToKJ = 4.184

// satFatEstimateRatio approximates saturated fat as a share of total fat when
// no direct value is present. Results built on it carry the Approximate flag.
const satFatEstimateRatio = 0.3

// bracket is one row of a piecewise threshold table: value in [min, max]
// scores points. Lookup takes the first matching row, so a value sitting on a
// shared boundary gets the lower bracket's points (protein 8.0 g scores 4,
// not 5).
type bracket struct {
	min, max float64
	points   int
}

func pointsFor(value float64, table []bracket) int {
	for _, b := range table {
		if value >= b.min && value <= b.max {
			return b.points
		}
	}
	return 0
}

// Official Nutri-Score negative point tables (per 100g/100ml).
var (
	energyBrackets = []bracket{ // kJ
		{0, 335, 0}, {336, 670, 1}, {671, 1005, 2}, {1006, 1340, 3},
		{1341, 1675, 4}, {1676, 2010, 5}, {2011, 2345, 6}, {2346, 2680, 7},
		{2681, 3015, 8}, {3016, 3350, 9}, {3351, math.Inf(1), 10},
	}
	sugarBrackets = []bracket{ // g
		{0, 4.5, 0}, {4.6, 9, 1}, {9.1, 13.5, 2}, {13.6, 18, 3},
		{18.1, 22.5, 4}, {22.6, 27, 5}, {27.1, 31, 6}, {31.1, 36, 7},
		{36.1, 40, 8}, {40.1, 45, 9}, {45.1, math.Inf(1), 10},
	}
	satFatBrackets = []bracket{ // g
		{0, 1, 0}, {1.1, 2, 1}, {2.1, 3, 2}, {3.1, 4, 3},
		{4.1, 5, 4}, {5.1, 6, 5}, {6.1, 7, 6}, {7.1, 8, 7},
		{8.1, 9, 8}, {9.1, 10, 9}, {10.1, math.Inf(1), 10},
	}
	sodiumBrackets = []bracket{ // mg
		{0, 90, 0}, {91, 180, 1}, {181, 270, 2}, {271, 360, 3},
		{361, 450, 4}, {451, 540, 5}, {541, 630, 6}, {631, 720, 7},
		{721, 810, 8}, {811, 900, 9}, {901, math.Inf(1), 10},
	}
)

// Official Nutri-Score positive point tables.
var (
	fiberBrackets = []bracket{ // g
		{0, 0.9, 0}, {0.9, 1.9, 1}, {1.9, 2.8, 2}, {2.8, 3.7, 3},
		{3.7, 4.7, 4}, {4.7, math.Inf(1), 5},
	}
	proteinBrackets = []bracket{ // g
		{0, 1.6, 0}, {1.6, 3.2, 1}, {3.2, 4.8, 2}, {4.8, 6.4, 3},
		{6.4, 8, 4}, {8, math.Inf(1), 5},
	}
)

// nutriGradeScores maps a letter grade to the 0-100 scale shared by all
// sub-scores.
var nutriGradeScores = map[string]int{"a": 100, "b": 80, "c": 60, "d": 40, "e": 20}

// Accepted synonyms for each nutrient key, checked in order.
var nutrientSynonyms = map[string][]string{
	"energy":        {"energy", "calories", "kcal", "calories_per_100g_or_100ml"},
	"sugar":         {"sugar", "sugars", "total_sugar"},
	"saturated_fat": {"saturated_fat", "saturated fat", "saturated_fats", "saturated fats"},
	"fat":           {"fat", "total_fat", "fats"},
	"sodium":        {"sodium", "na"},
	"protein":       {"protein", "proteins"},
	"fiber":         {"fiber", "fibre", "dietary_fiber", "dietary fibre"},
}

// NutriService computes the Nutri-Score: upstream first, then the official
// point formula over whatever nutrient data the record carries.
type NutriService struct {
	upstream domain.UpstreamLookup
	log      zerolog.Logger
}

// NewNutriService creates a Nutri calculator. upstream may be nil.
func NewNutriService(upstream domain.UpstreamLookup, log zerolog.Logger) *NutriService {
	return &NutriService{upstream: upstream, log: log}
}

// Compute returns the Nutri result for a product, or nil when neither the
// upstream database nor the record's nutrient data can produce one.
func (s *NutriService) Compute(ctx context.Context, product *domain.ProductInput) *domain.NutriResult {
	if grade, ok := s.lookupUpstream(ctx, product); ok {
		return &domain.NutriResult{
			Grade:  grade,
			Score:  nutriGradeScores[grade],
			Source: domain.SourceAPI,
		}
	}

	if len(product.Nutrients) == 0 {
		s.log.Debug().Str("product", product.Name).Msg("no nutrient data, nutri score not available")
		return nil
	}
	return s.computeLocal(product)
}

func (s *NutriService) lookupUpstream(ctx context.Context, product *domain.ProductInput) (string, bool) {
	if s.upstream == nil {
		return "", false
	}
	if product.Barcode != "" {
		if up, err := s.upstream.ProductByBarcode(ctx, product.Barcode); err == nil && validNutriGrade(up.NutriGrade) {
			return strings.ToLower(up.NutriGrade), true
		}
	}
	if product.Name != "" {
		if up, err := s.upstream.SearchByName(ctx, product.Name); err == nil && validNutriGrade(up.NutriGrade) {
			return strings.ToLower(up.NutriGrade), true
		}
	}
	return "", false
}

func (s *NutriService) computeLocal(product *domain.ProductInput) *domain.NutriResult {
	approximate := false

	// Negative points: energy (kJ), sugar, saturated fat, sodium.
	n := 0
	if kcal, ok := nutrientValue(product.Nutrients, "energy"); ok && kcal > 0 {
		n += pointsFor(kcal*kcalToKJ, energyBrackets)
	}
	if sugar, ok := nutrientValue(product.Nutrients, "sugar"); ok {
		n += pointsFor(sugar, sugarBrackets)
	}

	satFat, ok := nutrientValue(product.Nutrients, "saturated_fat")
	if !ok {
		if fat, fatOK := nutrientValue(product.Nutrients, "fat"); fatOK && fat > 0 {
			satFat = fat * satFatEstimateRatio
			approximate = true
		}
	}
	n += pointsFor(satFat, satFatBrackets)

	sodium, ok := nutrientValue(product.Nutrients, "sodium")
	if !ok {
		// sodium is frequently missing from scraped data; defaulting to 0
		// understates N and is surfaced via Approximate
		sodium = 0
		approximate = true
	}
	n += pointsFor(sodium, sodiumBrackets)

	// Positive points: fiber comes from specification data, not nutrients.
	fiber, _ := nutrientValue(product.Specifications, "fiber")
	fiberPoints := pointsFor(fiber, fiberBrackets)
	proteinPoints := 0
	if protein, ok := nutrientValue(product.Nutrients, "protein"); ok {
		proteinPoints = pointsFor(protein, proteinBrackets)
	}
	p := fiberPoints + proteinPoints

	// The N>=11 branch only credits fiber plus the fruit/vegetable/nuts
	// component, which is not computable from scraped data and stays 0.
	var final int
	if n < 11 {
		final = n - p
	} else {
		final = n - fiberPoints
		approximate = true
	}

	grade := gradeFor(final)
	return &domain.NutriResult{
		Grade:          grade,
		Score:          nutriGradeScores[grade],
		Source:         domain.SourceLocal,
		NegativePoints: n,
		PositivePoints: p,
		Approximate:    approximate,
	}
}

func gradeFor(final int) string {
	switch {
	case final <= -1:
		return "a"
	case final <= 2:
		return "b"
	case final <= 10:
		return "c"
	case final <= 18:
		return "d"
	default:
		return "e"
	}
}

func validNutriGrade(g string) bool {
	_, ok := nutriGradeScores[strings.ToLower(g)]
	return ok
}

// nutrientValue resolves a nutrient through its accepted synonyms.
func nutrientValue(values map[string]float64, key string) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	for _, syn := range nutrientSynonyms[key] {
		if v, ok := values[syn]; ok {
			return v, true
		}
	}
	return 0, false
}
