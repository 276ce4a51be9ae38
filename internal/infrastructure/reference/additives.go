package reference

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mmrshk/purio-backend/internal/domain"
)

// AdditiveTable maps normalized E-codes to risk tiers. Loaded once, read-only.
type AdditiveTable struct {
	tiers map[string]domain.RiskTier
}

// LoadAdditiveTable reads a YAML mapping of additive code to tier, e.g.
//
//	e300: free
//	e621: high
//
// Codes are stored case-folded; tiers outside the four known values are
// rejected at load time.
func LoadAdditiveTable(path string) (*AdditiveTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening additive table: %w", err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing additive table: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("additive table %s: empty", path)
	}

	t := &AdditiveTable{tiers: make(map[string]domain.RiskTier, len(raw))}
	for code, tier := range raw {
		rt := domain.RiskTier(strings.ToLower(strings.TrimSpace(tier)))
		if !rt.Valid() {
			return nil, fmt.Errorf("%w: %q for additive %q", domain.ErrUnknownRiskTier, tier, code)
		}
		t.tiers[NormalizeAdditiveCode(code)] = rt
	}
	return t, nil
}

// RiskTier returns the tier for a code in any of the shapes tags arrive in
// ("e150a", "E150a", "en:e150a").
func (t *AdditiveTable) RiskTier(code string) (domain.RiskTier, bool) {
	tier, ok := t.tiers[NormalizeAdditiveCode(code)]
	return tier, ok
}

// Len returns the number of additives loaded.
func (t *AdditiveTable) Len() int { return len(t.tiers) }

// NormalizeAdditiveCode lowers a tag and strips the Open Food Facts language
// prefix: "en:E150a" -> "e150a".
func NormalizeAdditiveCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexByte(code, ':'); i >= 0 {
		code = code[i+1:]
	}
	return code
}

var (
	sharedAdditivesOnce sync.Once
	sharedAdditives     *AdditiveTable
	sharedAdditivesErr  error
)

// SharedAdditiveTable memoizes the additive table process-wide.
func SharedAdditiveTable(path string) (*AdditiveTable, error) {
	sharedAdditivesOnce.Do(func() {
		sharedAdditives, sharedAdditivesErr = LoadAdditiveTable(path)
	})
	return sharedAdditives, sharedAdditivesErr
}
