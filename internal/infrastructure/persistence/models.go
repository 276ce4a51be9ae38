package persistence

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mmrshk/purio-backend/internal/domain"
)

// Product is the scraped product row. Nutritional and specification payloads
// stay as JSON columns because the scraper's key set varies per supermarket.
type Product struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Barcode         string         `gorm:"index" json:"barcode"`
	Name            string         `gorm:"not null" json:"name"`
	Category        string         `json:"category"`
	IngredientsText string         `json:"ingredients_text"`
	Nutritional     datatypes.JSON `gorm:"type:jsonb" json:"nutritional"`
	Specifications  datatypes.JSON `gorm:"type:jsonb" json:"specifications"`
	AdditiveTags    datatypes.JSON `gorm:"type:jsonb" json:"additive_tags"`

	NovaScore            *int     `json:"nova_score"`
	NovaGroup            *int     `json:"nova_group"`
	NovaSource           string   `gorm:"type:varchar(20)" json:"nova_source"`
	NutriScore           *int     `json:"nutri_score"`
	NutriGrade           string   `gorm:"type:varchar(1)" json:"nutri_grade"`
	NutriSource          string   `gorm:"type:varchar(20)" json:"nutri_source"`
	AdditivesScore       *int     `json:"additives_score"`
	FinalScore           *float64 `json:"final_score"`
	DisplayScore         *int     `json:"display_score"`
	HasHighRiskAdditives bool     `gorm:"default:false" json:"has_high_risk_additives"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// BeforeCreate assigns a UUID when none was provided.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// toInput converts a row into the engine's input shape.
func (p *Product) toInput() *domain.ProductInput {
	return &domain.ProductInput{
		ID:              p.ID.String(),
		Barcode:         p.Barcode,
		Name:            p.Name,
		Category:        p.Category,
		IngredientsText: p.IngredientsText,
		Nutrients:       decodeNumericMap(p.Nutritional),
		Specifications:  decodeNumericMap(p.Specifications),
		AdditiveTags:    decodeStringSlice(p.AdditiveTags),
	}
}

// decodeNumericMap reads a JSON object of nutrient values. Scraped values
// arrive as numbers or strings like "12.5 g"; non-numeric entries are
// dropped rather than guessed at.
func decodeNumericMap(raw datatypes.JSON) map[string]float64 {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil
	}

	values := make(map[string]float64, len(generic))
	for key, v := range generic {
		key = strings.ToLower(strings.TrimSpace(key))
		switch val := v.(type) {
		case float64:
			values[key] = val
		case string:
			if f, ok := parseLeadingNumber(val); ok {
				values[key] = f
			}
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}

// parseLeadingNumber extracts the number prefix of a value like "12.5 g" or
// "0,5g" (comma decimal separators appear in Romanian labels).
func parseLeadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	end := 0
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || (i == 0 && r == '-') {
			end = i + 1
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func decodeStringSlice(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}
