// Package serper
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"serptrack/packages/domain"
	"serptrack/packages/metrics"
	"serptrack/packages/retry"
)

const DefaultEndpoint = "https://google.serper.dev/search"

type Config struct {
	APIKey      string
	Endpoint    string
	Region      string
	Language    string // empty: guessed per keyword from its script
	Autocorrect bool
	Timeout     time.Duration
}

// Client issues one search request per (keyword, page) against the Serper
// endpoint and maps the raw response into rank-annotated organic results.
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      *Cache
}

// New builds a client. A missing API key is a configuration error and fails
// the whole run up front; cache may be nil to disable response caching.
func New(cfg Config, cache *Cache) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("serper: API key is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
	}, nil
}

type searchRequest struct {
	Q           string `json:"q"`
	GL          string `json:"gl"`
	HL          string `json:"hl"`
	Num         int    `json:"num"`
	Page        int    `json:"page"`
	Autocorrect bool   `json:"autocorrect"`
}

type searchResponse struct {
	Organic []organicItem `json:"organic"`
}

type organicItem struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Fetch performs one fetch attempt for (keyword, page). Outcomes: a 200 body
// parses into results (missing "organic" field means an empty page), 429 maps
// to retry.ErrRateLimited, timeouts and every other non-200 status map to
// retry.TransientError. Converting exhausted retries into a permanent failure
// is the retry policy's job, not the client's.
func (c *Client) Fetch(ctx context.Context, keyword string, page int) ([]domain.OrganicResult, error) {
	hl := c.cfg.Language
	if hl == "" {
		hl = LanguageHint(keyword)
	}

	if c.cache != nil {
		if results, ok := c.cache.Get(ctx, keyword, c.cfg.Region, hl, page, c.cfg.Autocorrect); ok {
			slog.Debug("SERP cache hit", "keyword", keyword, "page", page)
			return results, nil
		}
	}

	payload := searchRequest{
		Q:           keyword,
		GL:          c.cfg.Region,
		HL:          hl,
		Num:         domain.ResultsPerPage,
		Page:        page,
		Autocorrect: c.cfg.Autocorrect,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, retry.TransientError{Detail: "marshal request: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, retry.TransientError{Detail: "build request: " + err.Error()}
	}
	req.Header.Set("X-API-KEY", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.APIRequests.WithLabelValues("network_error").Inc()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, retry.TransientError{Detail: "timeout: " + err.Error()}
		}
		return nil, retry.TransientError{Detail: err.Error()}
	}
	defer resp.Body.Close()

	metrics.APIRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.ErrRateLimited
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, retry.TransientError{
			Detail: fmt.Sprintf("provider returned status %d: %s", resp.StatusCode, detail),
		}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, retry.TransientError{Detail: "decode response: " + err.Error()}
	}

	results := make([]domain.OrganicResult, 0, len(sr.Organic))
	for _, item := range sr.Organic {
		results = append(results, domain.OrganicResult{
			Title:        item.Title,
			URL:          item.Link,
			Snippet:      item.Snippet,
			Position:     item.Position,
			Page:         page,
			AbsoluteRank: (page-1)*domain.ResultsPerPage + item.Position,
		})
	}

	if c.cache != nil {
		c.cache.Put(ctx, keyword, c.cfg.Region, hl, page, c.cfg.Autocorrect, results)
	}
	return results, nil
}
