package domain

// Sub-score provenance values. "special_case" covers the water/alcohol
// shortcuts evaluated before any lookup.
const (
	SourceAPI         = "api"
	SourceLocal       = "local"
	SourceSpecialCase = "special_case"
)

// NovaResult is the product-level Nova classification. A nil *NovaResult
// means the score could not be established (no ingredients, no upstream hit).
type NovaResult struct {
	Group  int    `json:"group"` // 1..4
	Score  int    `json:"score"` // 100, 80, 50 or 20
	Source string `json:"source"`
}

// NutriResult is the Nutri-Score outcome. Approximate is set when the local
// computation leaned on a known gap: saturated fat estimated from total fat,
// sodium defaulted to zero, or the fruit/vegetable/nuts component of the
// N>=11 branch (always zero here).
type NutriResult struct {
	Grade          string `json:"grade"` // "a".."e"; empty when the grade came from upstream as a score only
	Score          int    `json:"score"`
	Source         string `json:"source"`
	NegativePoints int    `json:"negativePoints,omitempty"`
	PositivePoints int    `json:"positivePoints,omitempty"`
	Approximate    bool   `json:"approximate"`
}

// AdditivesResult is the additive-safety outcome. Unlike Nova and Nutri it is
// always present: a product with no additives scores 100.
type AdditivesResult struct {
	Score       int      `json:"score"`
	HasHighRisk bool     `json:"hasHighRisk"`
	Unmapped    []string `json:"unmapped,omitempty"` // tags skipped because no tier is known
}

// ScoreResult is the persisted outcome for one product. Sub-scores are
// pointers so that "Not Available" survives serialization; FinalScore keeps
// the unrounded blend, DisplayScore is the rounded, possibly capped value
// shown to users.
type ScoreResult struct {
	NovaScore           *int     `json:"novaScore"`
	NovaGroup           *int     `json:"novaGroup"`
	NovaSource          string   `json:"novaSource,omitempty"`
	NutriScore          *int     `json:"nutriScore"`
	NutriGrade          string   `json:"nutriGrade,omitempty"`
	NutriSource         string   `json:"nutriSource,omitempty"`
	NutriApproximate    bool     `json:"nutriApproximate"`
	AdditivesScore      *int     `json:"additivesScore"`
	FinalScore          *float64 `json:"finalScore"`
	DisplayScore        *int     `json:"displayScore"`
	HasHighRiskAdditive bool     `json:"hasHighRiskAdditive"`
}

// Available reports whether the combined scores are present. The three
// sub-scores either all contributed or the final/display pair is absent.
func (r *ScoreResult) Available() bool {
	return r.FinalScore != nil && r.DisplayScore != nil
}

// IntPtr is a small helper for building results and test fixtures.
func IntPtr(v int) *int { return &v }
