package usecase

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mmrshk/purio-backend/internal/domain"
	"github.com/mmrshk/purio-backend/internal/textnorm"
)

// additiveCodeRegex recognizes E-number codes inside tokens or their
// parenthetical qualifiers, e.g. "colorant (E150a)".
var additiveCodeRegex = regexp.MustCompile(`(?i)\be\d{3,4}[a-z]{0,2}\b`)

// defaultStoplist holds generic words that fuzzy-match half the reference
// table. A token equal to one of these is dropped even when the similarity
// clears the threshold.
var defaultStoplist = []string{
	"apa", "water", "suc", "juice", "concentrat", "concentrate",
	"agent", "acidifiant", "arome", "aroma", "indulcitori", "corector",
	"conservanti", "stabilizatori", "coloranti", "emulgatori",
	"dioxid", "carbon", "acid", "contine", "sursa", "extract",
}

// ClassifierConfig carries the tunables of the ingredient classifier.
type ClassifierConfig struct {
	SimilarityThreshold float64  // accept fuzzy matches at or above this, 0-100
	MinTokenLength      int      // tokens shorter than this (in runes) are rejected outright
	Stoplist            []string // normalized tokens rejected regardless of similarity
}

func (c ClassifierConfig) withDefaults() ClassifierConfig {
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = 85
	}
	if c.MinTokenLength <= 0 {
		c.MinTokenLength = 3
	}
	if len(c.Stoplist) == 0 {
		c.Stoplist = defaultStoplist
	}
	return c
}

// Classification is the outcome of classifying one ingredient list.
type Classification struct {
	Matches            []domain.IngredientMatch
	Unmatched          []string // tokens that cleared the filters but matched nothing
	Rejected           []string // tokens dropped by the stoplist or length filter
	AdditiveCandidates []string // normalized E-codes pulled from qualifiers
}

// Classifier maps free-text ingredient lists to Nova groups via the reference
// table. It holds no mutable state; the table is read-only after load.
type Classifier struct {
	table     domain.IngredientTable
	threshold float64
	minLen    int
	stoplist  map[string]bool
	log       zerolog.Logger
}

// NewClassifier creates a classifier over the given reference table.
func NewClassifier(table domain.IngredientTable, cfg ClassifierConfig, log zerolog.Logger) *Classifier {
	cfg = cfg.withDefaults()
	stop := make(map[string]bool, len(cfg.Stoplist))
	for _, w := range cfg.Stoplist {
		stop[textnorm.Fold(w)] = true
	}
	return &Classifier{
		table:     table,
		threshold: cfg.SimilarityThreshold,
		minLen:    cfg.MinTokenLength,
		stoplist:  stop,
		log:       log,
	}
}

// Classify splits an ingredient list on top-level commas and matches each
// token against the reference table: exact first, fuzzy second. Token order is
// preserved and duplicates are kept; aggregation only looks at distinct
// groups, so repeats affect statistics, not the Nova outcome.
func (c *Classifier) Classify(ingredientsText string) Classification {
	var result Classification
	if strings.TrimSpace(ingredientsText) == "" {
		return result
	}

	for _, raw := range splitTopLevel(ingredientsText) {
		token, qualifier := stripQualifier(raw)
		for _, code := range additiveCodeRegex.FindAllString(qualifier, -1) {
			result.AdditiveCandidates = append(result.AdditiveCandidates, strings.ToLower(code))
		}
		// the token itself may be a bare E-code ("E330")
		if code := additiveCodeRegex.FindString(token); code != "" && len(code) == len(strings.TrimSpace(token)) {
			result.AdditiveCandidates = append(result.AdditiveCandidates, strings.ToLower(code))
			continue
		}

		normalized := textnorm.CollapseSpaces(textnorm.Fold(token))
		if len([]rune(normalized)) < c.minLen || c.stoplist[normalized] {
			result.Rejected = append(result.Rejected, token)
			continue
		}

		if ref, ok := c.table.LookupExact(normalized); ok {
			result.Matches = append(result.Matches, domain.IngredientMatch{
				Original:   token,
				Name:       ref.Name,
				NameRO:     ref.NameRO,
				NovaGroup:  ref.NovaGroup,
				Confidence: 100,
				Method:     "exact",
			})
			continue
		}

		if match, ok := c.fuzzyMatch(normalized); ok {
			match.Original = token
			result.Matches = append(result.Matches, match)
			continue
		}

		c.log.Debug().Str("token", token).Msg("ingredient not matched")
		result.Unmatched = append(result.Unmatched, token)
	}
	return result
}

// fuzzyMatch scans the whole table (English and Romanian names) and keeps the
// best candidate at or above the threshold.
func (c *Classifier) fuzzyMatch(normalized string) (domain.IngredientMatch, bool) {
	var best domain.IngredientMatch
	bestScore := -1.0

	for _, ref := range c.table.Entries() {
		score := similarity(normalized, textnorm.Fold(ref.Name))
		if ro := textnorm.Fold(ref.NameRO); ro != "" {
			if s := similarity(normalized, ro); s > score {
				score = s
			}
		}
		if score > bestScore {
			bestScore = score
			best = domain.IngredientMatch{
				Name:       ref.Name,
				NameRO:     ref.NameRO,
				NovaGroup:  ref.NovaGroup,
				Confidence: score,
				Method:     "fuzzy",
			}
		}
	}

	if bestScore < c.threshold {
		return domain.IngredientMatch{}, false
	}
	return best, true
}

// splitTopLevel splits on commas outside parentheses, so
// "emulsifiers (E322, E471), sugar" yields two tokens, not three.
func splitTopLevel(s string) []string {
	var tokens []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				if tok := strings.TrimSpace(s[start:i]); tok != "" {
					tokens = append(tokens, tok)
				}
				start = i + 1
			}
		}
	}
	if tok := strings.TrimSpace(s[start:]); tok != "" {
		tokens = append(tokens, tok)
	}
	return tokens
}

// stripQualifier removes parenthetical qualifiers from a token and returns
// the bare token plus the concatenated qualifier text.
func stripQualifier(token string) (bare, qualifier string) {
	var b, q strings.Builder
	depth := 0
	for _, r := range token {
		switch r {
		case '(', '[':
			depth++
			continue
		case ')', ']':
			if depth > 0 {
				depth--
				q.WriteByte(' ')
			}
			continue
		}
		if depth > 0 {
			q.WriteRune(r)
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), strings.TrimSpace(q.String())
}

// similarity is a normalized Levenshtein ratio on a 0-100 scale.
func similarity(a, b string) float64 {
	if a == b {
		return 100
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 0
	}
	dist := levenshteinDistance(a, b)
	return (1 - float64(dist)/float64(longest)) * 100
}

// levenshteinDistance calculates the edit distance between two strings using
// two rows instead of the full matrix.
func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	n := len(r2)

	prev := make([]int, n+1)
	curr := make([]int, n+1)
	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
