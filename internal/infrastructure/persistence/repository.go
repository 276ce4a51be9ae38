package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mmrshk/purio-backend/internal/domain"
)

// Open connects to Postgres and migrates the product schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := db.AutoMigrate(&Product{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return db, nil
}

// ProductRepository is the gorm-backed implementation of
// domain.ProductRepository.
type ProductRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewProductRepository(db *gorm.DB, log zerolog.Logger) *ProductRepository {
	return &ProductRepository{db: db, log: log}
}

// GetByID loads one product as engine input.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.ProductInput, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid product id %q", domain.ErrInvalidInput, id)
	}

	var product Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("loading product %s: %w", id, err)
	}
	return product.toInput(), nil
}

// ListMissingFinalScore returns up to limit products that have never been
// scored or whose last run produced no final score.
func (r *ProductRepository) ListMissingFinalScore(ctx context.Context, limit int) ([]domain.ProductInput, error) {
	if limit <= 0 {
		limit = 100
	}

	var products []Product
	err := r.db.WithContext(ctx).
		Where("final_score IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("listing unscored products: %w", err)
	}

	inputs := make([]domain.ProductInput, 0, len(products))
	for i := range products {
		inputs = append(inputs, *products[i].toInput())
	}
	return inputs, nil
}

// UpdateScores persists a scoring result onto its product row.
func (r *ProductRepository) UpdateScores(ctx context.Context, id string, result *domain.ScoreResult) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: invalid product id %q", domain.ErrInvalidInput, id)
	}

	updates := map[string]interface{}{
		"nova_score":              result.NovaScore,
		"nova_group":              result.NovaGroup,
		"nova_source":             result.NovaSource,
		"nutri_score":             result.NutriScore,
		"nutri_grade":             result.NutriGrade,
		"nutri_source":            result.NutriSource,
		"additives_score":         result.AdditivesScore,
		"final_score":             result.FinalScore,
		"display_score":           result.DisplayScore,
		"has_high_risk_additives": result.HasHighRiskAdditive,
	}

	tx := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", uid).Updates(updates)
	if tx.Error != nil {
		return fmt.Errorf("updating scores for %s: %w", id, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}

	r.log.Debug().Str("product_id", id).Bool("available", result.Available()).Msg("scores persisted")
	return nil
}

var _ domain.ProductRepository = (*ProductRepository)(nil)
