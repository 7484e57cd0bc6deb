// Package catalog talks to the external movie catalog (TMDb-shaped) used by
// the identifier. The boundary is intentionally narrow: search by title and
// optional year, and fetch details for a known id.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"discpipe/internal/services"
)

// Candidate is one catalog search result.
type Candidate struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Year       int     `json:"year"`
	Overview   string  `json:"overview"`
	PosterRef  string  `json:"poster_ref"`
	Popularity float64 `json:"popularity"`
}

// Details is the full record for a single catalog id.
type Details struct {
	Candidate
}

// Searcher is the boundary the identifier depends on.
type Searcher interface {
	SearchMovie(ctx context.Context, query string, year int) ([]Candidate, error)
	GetDetails(ctx context.Context, id int64) (*Details, error)
}

type tmdbResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
}

type tmdbResponse struct {
	Results []tmdbResult `json:"results"`
}

// Client is a TMDb-shaped HTTP implementation of Searcher.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs a Client. apiKey is the catalog token from configuration;
// an empty token means the catalog is disabled, which callers check via
// config.Config.CatalogEnabled before calling New.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("catalog token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie searches the catalog for query, optionally narrowed to year.
// A zero year omits the filter. Up to 10 candidates are returned, matching
// the default N the identifier scores.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) ([]Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/search/movie")
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("api_key", c.apiKey)
	if year > 0 {
		params.Set("primary_release_year", strconv.Itoa(year))
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(started)
	if err != nil {
		return nil, &services.CatalogUnavailableError{Details: fmt.Sprintf("request failed after %v", latency), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &services.CatalogUnavailableError{Details: fmt.Sprintf("catalog search returned %d", resp.StatusCode)}
	}

	var payload tmdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &services.CatalogUnavailableError{Details: "decode catalog response", Cause: err}
	}

	candidates := make([]Candidate, 0, len(payload.Results))
	for _, r := range payload.Results {
		candidates = append(candidates, toCandidate(r))
	}
	if len(candidates) > 10 {
		candidates = candidates[:10]
	}
	return candidates, nil
}

// GetDetails fetches the full record for id, used for poster lookups on
// pre-identify and manual-identify paths.
func (c *Client) GetDetails(ctx context.Context, id int64) (*Details, error) {
	if id <= 0 {
		return nil, errors.New("catalog id must be positive")
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/movie/%d", c.baseURL, id))
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(started)
	if err != nil {
		return nil, &services.CatalogUnavailableError{Details: fmt.Sprintf("request failed after %v", latency), Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &services.CatalogUnavailableError{Details: fmt.Sprintf("catalog details returned %d", resp.StatusCode)}
	}

	var payload tmdbResult
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &services.CatalogUnavailableError{Details: "decode catalog details", Cause: err}
	}
	return &Details{Candidate: toCandidate(payload)}, nil
}

func toCandidate(r tmdbResult) Candidate {
	year := 0
	if len(r.ReleaseDate) >= 4 {
		if y, err := strconv.Atoi(r.ReleaseDate[:4]); err == nil {
			year = y
		}
	}
	return Candidate{
		ID:         r.ID,
		Title:      r.Title,
		Year:       year,
		Overview:   r.Overview,
		PosterRef:  r.PosterPath,
		Popularity: r.Popularity,
	}
}
