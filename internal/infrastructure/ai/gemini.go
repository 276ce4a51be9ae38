package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/mmrshk/purio-backend/internal/domain"
)

const inferencePrompt = `You are a food labeling assistant. For the Romanian retail product named %q, list the most likely ingredients in the order they would appear on the label.

Respond with a JSON array of lowercase ingredient names only, no explanations, for example:
["faina de grau", "apa", "drojdie", "sare"]`

// GeminiInferrer guesses ingredient lists for products that were scraped
// without one. It satisfies domain.IngredientInferrer; any failure is
// returned as an error the scorer downgrades to "no ingredients".
type GeminiInferrer struct {
	client *genai.Client
	model  *genai.GenerativeModel
	log    zerolog.Logger
}

// NewGeminiInferrer creates a Gemini-backed inferrer.
func NewGeminiInferrer(ctx context.Context, apiKey, modelName string, log zerolog.Logger) (*GeminiInferrer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", domain.ErrInvalidInput)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	return &GeminiInferrer{
		client: client,
		model:  client.GenerativeModel(modelName),
		log:    log,
	}, nil
}

// Close closes the underlying client connection.
func (g *GeminiInferrer) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

// InferIngredients asks the model for a probable ingredient list.
func (g *GeminiInferrer) InferIngredients(ctx context.Context, productName string) ([]string, error) {
	if strings.TrimSpace(productName) == "" {
		return nil, fmt.Errorf("%w: empty product name", domain.ErrInvalidInput)
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(fmt.Sprintf(inferencePrompt, productName)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrInferenceFailed)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}

	ingredients, err := parseIngredientList(text.String())
	if err != nil {
		g.log.Warn().Str("product", productName).Err(err).Msg("unparseable inference response")
		return nil, err
	}

	g.log.Debug().Str("product", productName).Int("count", len(ingredients)).Msg("ingredients inferred")
	return ingredients, nil
}

// parseIngredientList extracts the JSON array from a model response, which
// may come wrapped in markdown code fences.
func parseIngredientList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var ingredients []string
	if err := json.Unmarshal([]byte(raw), &ingredients); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInferenceFailed, err)
	}

	cleaned := ingredients[:0]
	for _, ing := range ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			cleaned = append(cleaned, ing)
		}
	}
	return cleaned, nil
}

var _ domain.IngredientInferrer = (*GeminiInferrer)(nil)
