package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmrshk/purio-backend/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadIngredientTable(t *testing.T) {
	path := writeFile(t, "ingredients.csv", "name,name_ro,nova_group\nmilk,lapte,1\nsugar,zahăr,2\nyogurt culture,cultură de iaurt,3\n")

	table, err := LoadIngredientTable(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	ref, ok := table.LookupExact("lapte")
	require.True(t, ok)
	assert.Equal(t, "milk", ref.Name)
	assert.Equal(t, 1, ref.NovaGroup)

	// Romanian alias is stored diacritic-folded
	ref, ok = table.LookupExact("zahar")
	require.True(t, ok)
	assert.Equal(t, "sugar", ref.Name)
	assert.Equal(t, 2, ref.NovaGroup)

	_, ok = table.LookupExact("unknown")
	assert.False(t, ok)
}

func TestLoadIngredientTable_BadGroup(t *testing.T) {
	path := writeFile(t, "ingredients.csv", "name,name_ro,nova_group\nmilk,lapte,7\n")

	_, err := LoadIngredientTable(path)
	assert.Error(t, err)
}

func TestLoadIngredientTable_MissingFile(t *testing.T) {
	_, err := LoadIngredientTable(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadAdditiveTable(t *testing.T) {
	path := writeFile(t, "additives.yaml", "e300: free\ne330: low\ne150a: moderate\ne621: high\n")

	table, err := LoadAdditiveTable(path)
	require.NoError(t, err)
	assert.Equal(t, 4, table.Len())

	tier, ok := table.RiskTier("e621")
	require.True(t, ok)
	assert.Equal(t, domain.RiskHigh, tier)

	// OFF-style tags and uppercase codes resolve to the same entry
	tier, ok = table.RiskTier("en:E150a")
	require.True(t, ok)
	assert.Equal(t, domain.RiskModerate, tier)

	_, ok = table.RiskTier("e999")
	assert.False(t, ok)
}

func TestLoadAdditiveTable_UnknownTier(t *testing.T) {
	path := writeFile(t, "additives.yaml", "e300: terrifying\n")

	_, err := LoadAdditiveTable(path)
	assert.ErrorIs(t, err, domain.ErrUnknownRiskTier)
}

func TestNormalizeAdditiveCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"e968", "e968"},
		{"E968", "e968"},
		{"en:e150a", "e150a"},
		{"  EN:E140ii ", "e140ii"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeAdditiveCode(tt.in))
	}
}
