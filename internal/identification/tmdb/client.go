package tmdb

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
)

// Media types reported by multi search.
const (
	MediaMovie = "movie"
	MediaTV    = "tv"
)

// Result represents a single TMDB search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	MediaType    string  `json:"media_type"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// DisplayTitle returns the movie title or the show name.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year returns the release (or first air) year, or 0 when unknown.
func (r Result) Year() int {
	return yearOf(r.ReleaseDate, r.FirstAirDate)
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Genre is a TMDB genre entry.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CastMember is one billed cast entry.
type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember is one crew entry.
type CrewMember struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits groups cast and crew as returned by append_to_response=credits.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Details captures a movie or TV detail payload including credits.
type Details struct {
	Result
	Genres    []Genre      `json:"genres"`
	Credits   Credits      `json:"credits"`
	CreatedBy []CrewMember `json:"created_by"`
}

// GenreNames returns the genre names in payload order.
func (d Details) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Searcher defines the TMDB operations used by enrichment.
type Searcher interface {
	SearchMulti(ctx context.Context, query string) (*Response, error)
	GetMovieDetails(ctx context.Context, movieID int64) (*Details, error)
	GetTVDetails(ctx context.Context, showID int64) (*Details, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
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

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	language = strings.TrimSpace(language)
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   language,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMulti performs a TMDB multi search across movies and TV shows.
// Person results are dropped.
func (c *Client) SearchMulti(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	var payload Response
	if err := c.get(ctx, "/search/multi", url.Values{"query": {query}}, "multi search", &payload); err != nil {
		return nil, err
	}
	filtered := payload.Results[:0]
	for _, result := range payload.Results {
		if result.MediaType == MediaMovie || result.MediaType == MediaTV {
			filtered = append(filtered, result)
		}
	}
	payload.Results = filtered
	return &payload, nil
}

// GetMovieDetails fetches movie details and credits by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	var payload Details
	params := url.Values{"append_to_response": {"credits"}}
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", movieID), params, "movie details", &payload); err != nil {
		return nil, err
	}
	payload.MediaType = MediaMovie
	return &payload, nil
}

// GetTVDetails fetches TV show details and credits by TMDB ID.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*Details, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	var payload Details
	params := url.Values{"append_to_response": {"credits"}}
	if err := c.get(ctx, fmt.Sprintf("/tv/%d", showID), params, "tv details", &payload); err != nil {
		return nil, err
	}
	payload.MediaType = MediaTV
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, label string, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Label: label, StatusCode: resp.StatusCode, Latency: latency}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb %s: %w", label, err)
	}
	return nil
}

// StatusError reports a non-200 TMDB response.
type StatusError struct {
	Label      string
	StatusCode int
	Latency    time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb %s returned %d (latency=%v)", e.Label, e.StatusCode, e.Latency)
}

// Temporary reports whether the status is worth retrying later.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func yearOf(dates ...string) int {
	for _, date := range dates {
		date = strings.TrimSpace(date)
		if len(date) < 4 {
			continue
		}
		if year, err := strconv.Atoi(date[:4]); err == nil && year > 0 {
			return year
		}
	}
	return 0
}
