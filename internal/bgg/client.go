// Package bgg is a client for the BoardGameGeek XML API2, the metadata
// provider for games in the collection.
package bgg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/playlog/internal/config"
	"github.com/playlog/internal/domain"
	"github.com/playlog/internal/metrics"
)

const (
	defaultBaseURL = "https://boardgamegeek.com/xmlapi2"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 4 << 20
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client queries the BoardGameGeek API
type Client struct {
	baseURL    string
	token      string
	userAgent  string
	httpClient httpDoer
	logger     *slog.Logger
}

// NewClient constructs a client from configuration
func NewClient(cfg *config.BGGConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(cfg.Token),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Search finds board games whose name matches query. A blank query returns
// no results without calling the API.
func (c *Client) Search(ctx context.Context, query string) ([]domain.GameSearchResult, error) {
	q := strings.Join(strings.Fields(query), " ")
	if q == "" {
		return []domain.GameSearchResult{}, nil
	}

	params := url.Values{}
	params.Set("query", q)
	params.Set("type", itemTypeBoardGame)

	start := time.Now()
	body, err := c.get(ctx, "/search", params)
	if err != nil {
		metrics.ObserveProvider("search", "error", start)
		return nil, fmt.Errorf("bgg search: %w", err)
	}

	results, err := parseSearch(body)
	if err != nil {
		metrics.ObserveProvider("search", "error", start)
		return nil, fmt.Errorf("bgg search: decoding response: %w", err)
	}
	metrics.ObserveProvider("search", "success", start)
	return results, nil
}

// Lookup fetches one game's metadata. Unknown ids yield
// domain.ErrGameNotFound.
func (c *Client) Lookup(ctx context.Context, id int) (*domain.GameMetadata, error) {
	params := url.Values{}
	params.Set("id", strconv.Itoa(id))

	start := time.Now()
	body, err := c.get(ctx, "/thing", params)
	if err != nil {
		metrics.ObserveProvider("lookup", "error", start)
		return nil, fmt.Errorf("bgg thing %d: %w", id, err)
	}

	game, err := parseThing(body)
	if err != nil {
		metrics.ObserveProvider("lookup", "error", start)
		return nil, fmt.Errorf("bgg thing %d: decoding response: %w", id, err)
	}
	if game == nil {
		metrics.ObserveProvider("lookup", "not_found", start)
		return nil, domain.ErrGameNotFound
	}
	metrics.ObserveProvider("lookup", "success", start)
	return game, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/xml, text/xml, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("bgg request completed", "path", path, "bytes", len(body))
	return body, nil
}
