package off

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/mmrshk/purio-backend/internal/domain"
)

// Client talks to the Open Food Facts API. It satisfies
// domain.UpstreamLookup; every error it returns means "compute locally".
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
	log         zerolog.Logger
}

// Config carries the client tunables.
type Config struct {
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://world.openfoodfacts.org"
	}
	if c.UserAgent == "" {
		c.UserAgent = "Purio/1.0"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	// OFF asks clients to stay under ~100 product queries per minute
	if c.RequestsPerSec == 0 {
		c.RequestsPerSec = 1.5
	}
	if c.Burst == 0 {
		c.Burst = 5
	}
	return c
}

// NewClient creates an Open Food Facts client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		userAgent:   cfg.UserAgent,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		log:         log,
	}
}

// flexInt tolerates the two shapes nova_group arrives in: a JSON number or a
// quoted numeric string, depending on the product record.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// productPayload mirrors the fields we read from an OFF product object.
type productPayload struct {
	NovaGroup       flexInt `json:"nova_group"`
	NutriscoreGrade string  `json:"nutriscore_grade"`
}

func (p productPayload) scores() domain.UpstreamScores {
	return domain.UpstreamScores{
		NovaGroup:  int(p.NovaGroup),
		NutriGrade: p.NutriscoreGrade,
	}
}

type productResponse struct {
	Status  int            `json:"status"`
	Product productPayload `json:"product"`
}

type searchResponse struct {
	Products []productPayload `json:"products"`
}

// ProductByBarcode fetches the pre-computed scores for an EAN barcode.
func (c *Client) ProductByBarcode(ctx context.Context, barcode string) (domain.UpstreamScores, error) {
	if barcode == "" {
		return domain.UpstreamScores{}, fmt.Errorf("%w: empty barcode", domain.ErrInvalidInput)
	}

	reqURL := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))
	body, err := c.get(ctx, reqURL)
	if err != nil {
		return domain.UpstreamScores{}, err
	}

	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.UpstreamScores{}, fmt.Errorf("decoding product response: %w", err)
	}
	if resp.Status != 1 {
		c.log.Debug().Str("barcode", barcode).Msg("barcode not in upstream database")
		return domain.UpstreamScores{}, domain.ErrProductNotFound
	}
	return resp.Product.scores(), nil
}

// SearchByName runs a free-text search and returns the first hit's scores.
func (c *Client) SearchByName(ctx context.Context, name string) (domain.UpstreamScores, error) {
	if name == "" {
		return domain.UpstreamScores{}, fmt.Errorf("%w: empty name", domain.ErrInvalidInput)
	}

	params := url.Values{}
	params.Add("search_terms", name)
	params.Add("search_simple", "1")
	params.Add("action", "process")
	params.Add("json", "1")
	params.Add("page_size", "5")
	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return domain.UpstreamScores{}, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.UpstreamScores{}, fmt.Errorf("decoding search response: %w", err)
	}
	if len(resp.Products) == 0 {
		c.log.Debug().Str("name", name).Msg("no upstream search hits")
		return domain.UpstreamScores{}, domain.ErrProductNotFound
	}
	return resp.Products[0].scores(), nil
}

// get runs a rate-limited GET with up to 3 attempts. A 404 is final;
// transport errors and other non-200s back off and retry.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.Warn().Int("attempt", attempt).Err(err).Msg("upstream request failed")
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
			sleepBackoff(attempt)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, domain.ErrProductNotFound
		}
		if resp.StatusCode != http.StatusOK {
			c.log.Warn().Int("attempt", attempt).Int("status", resp.StatusCode).Msg("upstream returned error status")
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
			sleepBackoff(attempt)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

func sleepBackoff(attempt int) {
	time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
}
