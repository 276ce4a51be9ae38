package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrshk/purio-backend/config"
	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/textnorm"
	"github.com/mmrshk/purio-backend/internal/usecase"
)

type stubIngredientTable struct {
	entries []domain.IngredientRef
	index   map[string]domain.IngredientRef
}

func newStubTable(entries ...domain.IngredientRef) *stubIngredientTable {
	t := &stubIngredientTable{entries: entries, index: map[string]domain.IngredientRef{}}
	for _, e := range entries {
		t.index[textnorm.Fold(e.Name)] = e
		t.index[textnorm.Fold(e.NameRO)] = e
	}
	return t
}

func (t *stubIngredientTable) LookupExact(normalized string) (domain.IngredientRef, bool) {
	ref, ok := t.index[normalized]
	return ref, ok
}

func (t *stubIngredientTable) Entries() []domain.IngredientRef { return t.entries }

type stubAdditiveTable map[string]domain.RiskTier

func (t stubAdditiveTable) RiskTier(code string) (domain.RiskTier, bool) {
	tier, ok := t[code]
	return tier, ok
}

// stubRepo is a mock implementation of domain.ProductRepository
type stubRepo struct {
	product     *domain.ProductInput
	getErr      error
	updateCalls int
	lastResult  *domain.ScoreResult
}

func (r *stubRepo) GetByID(_ context.Context, _ string) (*domain.ProductInput, error) {
	return r.product, r.getErr
}

func (r *stubRepo) ListMissingFinalScore(_ context.Context, _ int) ([]domain.ProductInput, error) {
	return nil, nil
}

func (r *stubRepo) UpdateScores(_ context.Context, _ string, result *domain.ScoreResult) error {
	r.updateCalls++
	r.lastResult = result
	return nil
}

func newTestRouter(repo domain.ProductRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zerolog.Nop()

	table := newStubTable(
		domain.IngredientRef{Name: "milk", NameRO: "lapte", NovaGroup: 1},
		domain.IngredientRef{Name: "sugar", NameRO: "zahar", NovaGroup: 2},
	)
	scorer := usecase.NewProductScorer(
		usecase.NewClassifier(table, usecase.ClassifierConfig{}, log),
		usecase.NewNovaService(nil, usecase.NovaConfig{}, log),
		usecase.NewNutriService(nil, log),
		usecase.NewAdditivesService(stubAdditiveTable{"e621": domain.RiskHigh}, log),
		usecase.NewCombiner(usecase.CombinerConfig{}),
		nil,
		log,
	)

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"*"}
	return SetupRouter(cfg, NewHandler(scorer, repo, log))
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestScoreProduct(t *testing.T) {
	router := newTestRouter(nil)

	t.Run("scores a complete payload", func(t *testing.T) {
		body := `{
			"name": "Iaurt cu zahar",
			"ingredientsText": "lapte, zahar",
			"nutrients": {"energy": 150, "sugar": 8, "saturated_fat": 1, "sodium": 100, "protein": 8}
		}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/score", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var outcome struct {
			Result domain.ScoreResult `json:"result"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
		require.NotNil(t, outcome.Result.DisplayScore)
		// nova {1,2} -> 3 (50), nutri a (100), additives 100 -> 85
		assert.Equal(t, 85, *outcome.Result.DisplayScore)
		assert.Equal(t, "a", outcome.Result.NutriGrade)
	})

	t.Run("malformed json rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/score", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/score", strings.NewReader(`{"barcode":"123"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRescoreProduct(t *testing.T) {
	product := &domain.ProductInput{
		ID:              "7b2d6f1e-0000-0000-0000-000000000000",
		Name:            "Iaurt",
		IngredientsText: "lapte",
		Nutrients:       map[string]float64{"energy": 150, "sugar": 8, "saturated_fat": 1, "sodium": 100, "protein": 8},
	}

	t.Run("persists by default", func(t *testing.T) {
		repo := &stubRepo{product: product}
		router := newTestRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+product.ID+"/rescore", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, repo.updateCalls)
		require.NotNil(t, repo.lastResult)
		assert.True(t, repo.lastResult.Available())
	})

	t.Run("dry run skips persistence", func(t *testing.T) {
		repo := &stubRepo{product: product}
		router := newTestRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+product.ID+"/rescore?dry_run=true", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, repo.updateCalls)
		assert.Contains(t, w.Body.String(), `"dry_run":true`)
	})

	t.Run("unknown product yields 404", func(t *testing.T) {
		repo := &stubRepo{getErr: domain.ErrProductNotFound}
		router := newTestRouter(repo)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/nope/rescore", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("no repository configured yields 503", func(t *testing.T) {
		router := newTestRouter(nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/products/x/rescore", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
