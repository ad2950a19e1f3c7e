// Package mdbg looks up dictionary candidates on the MDBG Chinese dictionary.
package mdbg

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/scrape"
	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/provider"
)

const defaultBaseURL = "https://www.mdbg.net"

var (
	selRow         = cascadia.MustCompile("tr.row")
	selHead        = cascadia.MustCompile("td.head")
	selHanzi       = cascadia.MustCompile("div.hanzi")
	selPinyinSpans = cascadia.MustCompile("div.pinyin span")
	selDefs        = cascadia.MustCompile("td.details div.defs")
	selTail        = cascadia.MustCompile("td.tail")
)

// Provider scrapes the MDBG word dictionary result page.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider with the default MDBG URL.
func NewProvider(logger *slog.Logger) *Provider {
	return NewProviderWithURL(defaultBaseURL, logger)
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
func NewProviderWithURL(baseURL string, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logger.With("adapter", "mdbg"),
	}
}

// Search returns the candidates listed for term, in page order.
// An empty result page yields an empty slice and no error.
func (p *Provider) Search(ctx context.Context, term string) ([]provider.DictionaryCandidate, error) {
	q := url.Values{}
	q.Set("page", "worddict")
	q.Set("wdrst", "0")
	q.Set("wdqb", term)
	reqURL := p.baseURL + "/chinese/dictionary?" + q.Encode()

	p.log.DebugContext(ctx, "mdbg request", slog.String("term", term))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("mdbg: create request: %w", err)
	}
	req.Header.Set("User-Agent", scrape.UserAgent)

	resp, err := provider.DoWithRetry(ctx, p.httpClient, req, p.log, term)
	if err != nil {
		p.log.ErrorContext(ctx, "mdbg request failed", slog.String("term", term), slog.String("error", err.Error()))
		return nil, fmt.Errorf("mdbg: request failed: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []provider.DictionaryCandidate{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mdbg: unexpected status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	doc, err := scrape.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mdbg: %w: %w", domain.ErrMalformedResponse, err)
	}

	candidates := parseResults(doc)

	p.log.DebugContext(ctx, "mdbg response",
		slog.String("term", term),
		slog.Int("candidates", len(candidates)),
	)

	return candidates, nil
}

// parseResults extracts one candidate per result row. Rows without a
// headword are skipped.
func parseResults(doc *html.Node) []provider.DictionaryCandidate {
	rows := scrape.All(doc, selRow)
	out := make([]provider.DictionaryCandidate, 0, len(rows))

	for _, row := range rows {
		head := scrape.First(row, selHead)
		if head == nil {
			continue
		}
		term := strings.TrimSpace(scrape.Text(scrape.First(head, selHanzi)))
		if term == "" {
			continue
		}

		var syllables []string
		for _, span := range scrape.All(head, selPinyinSpans) {
			if s := strings.TrimSpace(scrape.Text(span)); s != "" {
				syllables = append(syllables, s)
			}
		}

		c := provider.DictionaryCandidate{
			Term:       term,
			Syllables:  syllables,
			Definition: cleanDefinition(scrape.Text(scrape.First(row, selDefs))),
		}
		if tail := scrape.First(row, selTail); tail != nil {
			c.Traditional = strings.TrimSpace(scrape.Text(scrape.First(tail, selHanzi)))
		}
		out = append(out, c)
	}
	return out
}

func cleanDefinition(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", ", "))
}
