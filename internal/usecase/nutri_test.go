package usecase

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
)

func TestNutriComputeLocal(t *testing.T) {
	svc := NewNutriService(nil, zerolog.Nop())
	ctx := context.Background()

	t.Run("healthy product grades A", func(t *testing.T) {
		// 150 kcal = 627.6 kJ (1) + sugar 8 (1) + satfat 1 (0) + sodium 100 (1) = N 3
		// fiber 4.5 (4) + protein 8 (4) = P 8, final -5
		product := &domain.ProductInput{
			Name: "Iaurt natural",
			Nutrients: map[string]float64{
				"energy":        150,
				"sugar":         8,
				"saturated_fat": 1,
				"sodium":        100,
				"protein":       8,
			},
			Specifications: map[string]float64{"fiber": 4.5},
		}
		result := svc.Compute(ctx, product)
		if result == nil {
			t.Fatal("result = nil, want a grade")
		}
		if result.NegativePoints != 3 {
			t.Errorf("N = %d, want 3", result.NegativePoints)
		}
		if result.PositivePoints != 8 {
			t.Errorf("P = %d, want 8", result.PositivePoints)
		}
		if result.Grade != "a" || result.Score != 100 {
			t.Errorf("grade/score = %s/%d, want a/100", result.Grade, result.Score)
		}
		if result.Source != domain.SourceLocal {
			t.Errorf("source = %q, want local", result.Source)
		}
		if result.Approximate {
			t.Error("approximate = true, want false with complete data")
		}
	})

	t.Run("protein points only credit fiber above the N threshold", func(t *testing.T) {
		// 200 kcal = 836.8 kJ (2) + sugar 25 (5) + satfat 3 (2) + sodium 200 (2) = N 11
		// fiber 1.5 (1) + protein 2 (1) = P 2; N >= 11 so final = 11 - 1 = 10
		product := &domain.ProductInput{
			Name: "Baton de ciocolata",
			Nutrients: map[string]float64{
				"energy":        200,
				"sugar":         25,
				"saturated_fat": 3,
				"sodium":        200,
				"protein":       2,
			},
			Specifications: map[string]float64{"fiber": 1.5},
		}
		result := svc.Compute(ctx, product)
		if result == nil {
			t.Fatal("result = nil, want a grade")
		}
		if result.NegativePoints != 11 || result.PositivePoints != 2 {
			t.Errorf("N/P = %d/%d, want 11/2", result.NegativePoints, result.PositivePoints)
		}
		if result.Grade != "c" || result.Score != 60 {
			t.Errorf("grade/score = %s/%d, want c/60", result.Grade, result.Score)
		}
	})

	t.Run("saturated fat estimated from total fat", func(t *testing.T) {
		product := &domain.ProductInput{
			Name: "Unt",
			Nutrients: map[string]float64{
				"energy": 100,
				"sodium": 50,
				"fat":    10, // estimated satfat 3 scores 2 points
			},
		}
		result := svc.Compute(ctx, product)
		if result == nil {
			t.Fatal("result = nil")
		}
		if !result.Approximate {
			t.Error("approximate = false, want true when satfat is estimated")
		}
		// energy 418.4 kJ (1) + satfat estimate (2) + sodium (0) = 3
		if result.NegativePoints != 3 {
			t.Errorf("N = %d, want 3", result.NegativePoints)
		}
	})

	t.Run("missing sodium defaults to zero and flags approximate", func(t *testing.T) {
		product := &domain.ProductInput{
			Name:      "Biscuiti",
			Nutrients: map[string]float64{"energy": 100, "sugar": 5, "saturated_fat": 1},
		}
		result := svc.Compute(ctx, product)
		if result == nil {
			t.Fatal("result = nil")
		}
		if !result.Approximate {
			t.Error("approximate = false, want true when sodium is absent")
		}
	})

	t.Run("nutrient synonyms resolve", func(t *testing.T) {
		product := &domain.ProductInput{
			Name: "Cereale",
			Nutrients: map[string]float64{
				"calories": 150,
				"sugars":   8,
				"fats":     3,
				"na":       100,
				"proteins": 8,
			},
			Specifications: map[string]float64{"fibre": 4.5},
		}
		result := svc.Compute(ctx, product)
		if result == nil {
			t.Fatal("result = nil")
		}
		if result.PositivePoints != 8 {
			t.Errorf("P = %d, want 8 via synonym keys", result.PositivePoints)
		}
	})

	t.Run("no nutrient data means absent", func(t *testing.T) {
		result := svc.Compute(ctx, &domain.ProductInput{Name: "Necunoscut"})
		if result != nil {
			t.Errorf("result = %+v, want nil", result)
		}
	})
}

func TestNutriMonotonicity(t *testing.T) {
	svc := NewNutriService(nil, zerolog.Nop())
	ctx := context.Background()

	base := map[string]float64{
		"energy":        150,
		"sugar":         8,
		"saturated_fat": 1,
		"sodium":        100,
		"protein":       4,
	}
	score := func(overrides map[string]float64) int {
		nutrients := make(map[string]float64, len(base))
		for k, v := range base {
			nutrients[k] = v
		}
		for k, v := range overrides {
			nutrients[k] = v
		}
		result := svc.Compute(ctx, &domain.ProductInput{Name: "x", Nutrients: nutrients})
		if result == nil {
			t.Fatal("result = nil")
		}
		return result.Score
	}

	baseline := score(nil)
	for _, tt := range []struct {
		name     string
		nutrient string
		worse    float64
	}{
		{"sugar", "sugar", 40},
		{"saturated fat", "saturated_fat", 9},
		{"sodium", "sodium", 850},
		{"energy", "energy", 700},
	} {
		t.Run("raising "+tt.name+" never raises the score", func(t *testing.T) {
			if worse := score(map[string]float64{tt.nutrient: tt.worse}); worse > baseline {
				t.Errorf("score with high %s = %d, baseline %d", tt.name, worse, baseline)
			}
		})
	}
}

func TestNutriUpstream(t *testing.T) {
	ctx := context.Background()

	t.Run("upstream grade wins over local data", func(t *testing.T) {
		up := &mockUpstream{byBarcode: domain.UpstreamScores{NutriGrade: "C"}}
		svc := NewNutriService(up, zerolog.Nop())

		product := &domain.ProductInput{
			Name:      "Suc de portocale",
			Barcode:   "5941234567890",
			Nutrients: map[string]float64{"energy": 150, "sugar": 8},
		}
		result := svc.Compute(ctx, product)
		if result == nil || result.Grade != "c" || result.Score != 60 {
			t.Fatalf("result = %+v, want upstream grade c", result)
		}
		if result.Source != domain.SourceAPI {
			t.Errorf("source = %q, want api", result.Source)
		}
	})

	t.Run("invalid upstream grade falls back to local", func(t *testing.T) {
		up := &mockUpstream{byName: domain.UpstreamScores{NutriGrade: "unknown"}}
		svc := NewNutriService(up, zerolog.Nop())

		product := &domain.ProductInput{
			Name:      "Suc",
			Nutrients: map[string]float64{"energy": 150, "sugar": 8, "saturated_fat": 1, "sodium": 100},
		}
		result := svc.Compute(ctx, product)
		if result == nil || result.Source != domain.SourceLocal {
			t.Fatalf("result = %+v, want local fallback", result)
		}
	})

	t.Run("upstream failure with no nutrients means absent", func(t *testing.T) {
		up := &mockUpstream{byNameErr: domain.ErrUpstreamUnavailable}
		svc := NewNutriService(up, zerolog.Nop())

		result := svc.Compute(ctx, &domain.ProductInput{Name: "Suc"})
		if result != nil {
			t.Errorf("result = %+v, want nil", result)
		}
	})
}

func TestGradeFor(t *testing.T) {
	tests := []struct {
		final int
		want  string
	}{
		{-5, "a"}, {-1, "a"}, {0, "b"}, {2, "b"}, {3, "c"}, {10, "c"}, {11, "d"}, {18, "d"}, {19, "e"}, {30, "e"},
	}
	for _, tt := range tests {
		if got := gradeFor(tt.final); got != tt.want {
			t.Errorf("gradeFor(%d) = %q, want %q", tt.final, got, tt.want)
		}
	}
}

func TestPointsFor(t *testing.T) {
	t.Run("boundary values take the lower bracket", func(t *testing.T) {
		if got := pointsFor(8, proteinBrackets); got != 4 {
			t.Errorf("protein 8 = %d points, want 4 (shared boundary)", got)
		}
		if got := pointsFor(8.01, proteinBrackets); got != 5 {
			t.Errorf("protein 8.01 = %d points, want 5", got)
		}
	})

	t.Run("energy brackets", func(t *testing.T) {
		cases := []struct {
			kj   float64
			want int
		}{{0, 0}, {335, 0}, {336, 1}, {1005, 2}, {3350, 9}, {3351, 10}, {9000, 10}}
		for _, c := range cases {
			if got := pointsFor(c.kj, energyBrackets); got != c.want {
				t.Errorf("energy %v kJ = %d points, want %d", c.kj, got, c.want)
			}
		}
	})

	t.Run("gaps between integer brackets score zero", func(t *testing.T) {
		// 335.5 kJ falls between the 0-335 and 336-670 rows
		if got := pointsFor(335.5, energyBrackets); got != 0 {
			t.Errorf("energy 335.5 kJ = %d points, want 0", got)
		}
	})
}
