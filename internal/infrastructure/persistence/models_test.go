package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestProductToInput(t *testing.T) {
	id := uuid.New()
	product := &Product{
		ID:              id,
		Barcode:         "5941234567890",
		Name:            "Iaurt natural",
		Category:        "lactate",
		IngredientsText: "lapte, fermenti",
		Nutritional:     datatypes.JSON(`{"Energy": "150 kcal", "sugar": 8, "protein": "8g"}`),
		Specifications:  datatypes.JSON(`{"fiber": "4,5 g"}`),
		AdditiveTags:    datatypes.JSON(`["en:e150a", "e330"]`),
	}

	input := product.toInput()
	assert.Equal(t, id.String(), input.ID)
	assert.Equal(t, "Iaurt natural", input.Name)
	assert.Equal(t, map[string]float64{"energy": 150, "sugar": 8, "protein": 8}, input.Nutrients)
	assert.Equal(t, map[string]float64{"fiber": 4.5}, input.Specifications)
	assert.Equal(t, []string{"en:e150a", "e330"}, input.AdditiveTags)
}

func TestDecodeNumericMap(t *testing.T) {
	t.Run("drops non numeric entries", func(t *testing.T) {
		values := decodeNumericMap(datatypes.JSON(`{"sugar": 8, "origin": "Romania"}`))
		assert.Equal(t, map[string]float64{"sugar": 8}, values)
	})

	t.Run("nil for empty or invalid payloads", func(t *testing.T) {
		assert.Nil(t, decodeNumericMap(nil))
		assert.Nil(t, decodeNumericMap(datatypes.JSON(`not json`)))
		assert.Nil(t, decodeNumericMap(datatypes.JSON(`{"origin": "Romania"}`)))
	})
}

func TestParseLeadingNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12.5 g", 12.5, true},
		{"0,5g", 0.5, true},
		{"150 kcal", 150, true},
		{"-1", -1, true},
		{"8", 8, true},
		{"urme", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseLeadingNumber(tt.in)
		require.Equal(t, tt.wantOK, ok, "parseLeadingNumber(%q)", tt.in)
		if ok {
			assert.Equal(t, tt.want, got, "parseLeadingNumber(%q)", tt.in)
		}
	}
}
