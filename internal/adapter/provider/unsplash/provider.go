// Package unsplash finds an illustrative photo for a term.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/provider"
)

const defaultBaseURL = "https://api.unsplash.com"

// Provider queries the Unsplash photo search API.
type Provider struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider with the default Unsplash API URL.
func NewProvider(accessKey string, logger *slog.Logger) *Provider {
	return NewProviderWithURL(defaultBaseURL, accessKey, logger)
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
func NewProviderWithURL(baseURL, accessKey string, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "unsplash"),
	}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// Search returns the URL of the most relevant photo for term, or "" when
// there is none.
func (p *Provider) Search(ctx context.Context, term string) (string, error) {
	q := url.Values{}
	q.Set("query", term)
	q.Set("page", "1")
	q.Set("per_page", "1")
	q.Set("order_by", "relevant")
	q.Set("client_id", p.accessKey)
	reqURL := p.baseURL + "/search/photos?" + q.Encode()

	p.log.DebugContext(ctx, "unsplash request", slog.String("term", term))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("unsplash: create request: %w", err)
	}
	req.Header.Set("Accept-Version", "v1")

	resp, err := provider.DoWithRetry(ctx, p.httpClient, req, p.log, term)
	if err != nil {
		p.log.ErrorContext(ctx, "unsplash request failed", slog.String("term", term), slog.String("error", err.Error()))
		return "", fmt.Errorf("unsplash: request failed: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unsplash: unexpected status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("unsplash: decode json: %w: %w", domain.ErrMalformedResponse, err)
	}
	if len(body.Results) == 0 {
		return "", nil
	}
	return body.Results[0].URLs.Regular, nil
}
