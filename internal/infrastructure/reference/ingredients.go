// Package reference loads the static tables the scoring engine matches
// against: the bilingual ingredient->Nova table (CSV) and the additive risk
// table (YAML). Tables are loaded once and never mutated afterwards, so they
// are safe to share across concurrent scoring calls.
package reference

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/textnorm"
)

// IngredientTable is an immutable in-memory index over the ingredients CSV.
// Both the English name and the Romanian alias key the same entry.
type IngredientTable struct {
	byName  map[string]domain.IngredientRef
	entries []domain.IngredientRef
}

// LoadIngredientTable reads a CSV with header name,name_ro,nova_group and
// builds the lookup index. Rows with an out-of-range Nova group are rejected
// so a bad table fails loudly at startup rather than skewing scores.
func LoadIngredientTable(path string) (*IngredientTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ingredient table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 3
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ingredient table: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("ingredient table %s: no data rows", path)
	}

	t := &IngredientTable{byName: make(map[string]domain.IngredientRef, 2*len(rows))}
	for i, row := range rows[1:] { // skip header
		group, err := strconv.Atoi(row[2])
		if err != nil || group < 1 || group > 4 {
			return nil, fmt.Errorf("ingredient table row %d: bad nova_group %q", i+2, row[2])
		}
		ref := domain.IngredientRef{Name: row[0], NameRO: row[1], NovaGroup: group}
		t.entries = append(t.entries, ref)
		t.byName[textnorm.Fold(ref.Name)] = ref
		if ref.NameRO != "" {
			t.byName[textnorm.Fold(ref.NameRO)] = ref
		}
	}
	return t, nil
}

// LookupExact returns the entry keyed by an already-normalized name.
func (t *IngredientTable) LookupExact(normalized string) (domain.IngredientRef, bool) {
	ref, ok := t.byName[normalized]
	return ref, ok
}

// Entries returns all table rows for fuzzy scanning. Callers must not mutate.
func (t *IngredientTable) Entries() []domain.IngredientRef { return t.entries }

// Len returns the number of distinct ingredients loaded.
func (t *IngredientTable) Len() int { return len(t.entries) }

var (
	sharedIngredientsOnce sync.Once
	sharedIngredients     *IngredientTable
	sharedIngredientsErr  error
)

// SharedIngredientTable memoizes the table for callers that share one
// process-wide copy (server and CLI both go through here). The first path
// wins; later calls ignore their argument.
func SharedIngredientTable(path string) (*IngredientTable, error) {
	sharedIngredientsOnce.Do(func() {
		sharedIngredients, sharedIngredientsErr = LoadIngredientTable(path)
	})
	return sharedIngredients, sharedIngredientsErr
}
