package domain

// ProductInput is the flat product record the scoring engine reads. It is
// assembled by the scraping/retrieval side (or the persistence layer) and the
// engine never cares where it came from.
type ProductInput struct {
	ID              string             `json:"id,omitempty"`
	Barcode         string             `json:"barcode,omitempty"`
	Name            string             `json:"name"`
	Category        string             `json:"category,omitempty"`
	IngredientsText string             `json:"ingredientsText,omitempty"`
	Nutrients       map[string]float64 `json:"nutrients,omitempty"`      // per 100g/100ml
	Specifications  map[string]float64 `json:"specifications,omitempty"` // fiber lives here, not in Nutrients
	AdditiveTags    []string           `json:"additiveTags,omitempty"`   // normalized codes, e.g. "e1510"
}

// IngredientMatch is one classified ingredient token. Produced per token,
// consumed by Nova aggregation and statistics, never persisted on its own.
type IngredientMatch struct {
	Original   string  `json:"original"`
	Name       string  `json:"name"`   // canonical English name from the reference table
	NameRO     string  `json:"nameRo"` // Romanian display name
	NovaGroup  int     `json:"novaGroup"`
	Confidence float64 `json:"confidence"` // 0-100 similarity of the accepted match
	Method     string  `json:"method"`     // "exact" or "fuzzy"
}
