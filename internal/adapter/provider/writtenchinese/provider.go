// Package writtenchinese scrapes stroke-order diagrams and per-character
// meanings from the Written Chinese dictionary.
package writtenchinese

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/scrape"
	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/provider"
	"github.com/havliksimon/anki-card-creator/internal/tone"
)

const defaultBaseURL = "https://dictionary.writtenchinese.com"

var (
	selDetailLink = cascadia.MustCompile("a.learn-more-link")
	selStrokeGIF  = cascadia.MustCompile("div.symbol-layer img")
	selCharRows   = cascadia.MustCompile("table.with-flex tr")
	selRowChar    = cascadia.MustCompile("td.smbl-cstm-wrp.word span")
	selRowPinyin  = cascadia.MustCompile("td.pinyin a")
	selMeaning    = cascadia.MustCompile("td.txt-cell")
)

// Provider fetches stroke diagrams in two requests: the search page, then the
// word detail page it links to.
type Provider struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider with the default Written Chinese URL.
func NewProvider(logger *slog.Logger) *Provider {
	return NewProviderWithURL(defaultBaseURL, logger)
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
func NewProviderWithURL(baseURL string, logger *slog.Logger) *Provider {
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.With("adapter", "writtenchinese"),
	}
}

// Lookup returns the stroke diagrams and gloss lines for term. A term the
// site does not know yields an empty result and no error.
func (p *Provider) Lookup(ctx context.Context, term string) (provider.StrokeResult, error) {
	empty := provider.StrokeResult{GlossLines: []string{}, DiagramURLs: []string{}}

	p.log.DebugContext(ctx, "writtenchinese search", slog.String("term", term))

	search, err := p.fetch(ctx, p.baseURL+"/?searchKey="+url.QueryEscape(term), term)
	if err != nil {
		return empty, err
	}
	if search == nil {
		return empty, nil
	}

	href := detailHref(search)
	if href == "" {
		return empty, nil
	}

	detail, err := p.fetch(ctx, p.absolute(href), term)
	if err != nil {
		return empty, err
	}
	if detail == nil {
		return empty, nil
	}

	result := provider.StrokeResult{
		GlossLines:  glossLines(detail, term),
		DiagramURLs: p.diagramURLs(detail),
	}

	p.log.DebugContext(ctx, "writtenchinese response",
		slog.String("term", term),
		slog.Int("diagrams", len(result.DiagramURLs)),
		slog.Int("gloss_lines", len(result.GlossLines)),
	)

	return result, nil
}

// fetch GETs a page and parses it. A 404 returns nil, nil.
func (p *Provider) fetch(ctx context.Context, pageURL, term string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("writtenchinese: create request: %w", err)
	}
	req.Header.Set("User-Agent", scrape.UserAgent)

	resp, err := provider.DoWithRetry(ctx, p.httpClient, req, p.log, term)
	if err != nil {
		p.log.ErrorContext(ctx, "writtenchinese request failed", slog.String("term", term), slog.String("error", err.Error()))
		return nil, fmt.Errorf("writtenchinese: request failed: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("writtenchinese: unexpected status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	doc, err := scrape.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("writtenchinese: %w: %w", domain.ErrMalformedResponse, err)
	}
	return doc, nil
}

func detailHref(doc *html.Node) string {
	for _, a := range scrape.All(doc, selDetailLink) {
		if href := scrape.Attr(a, "href"); strings.Contains(href, "worddetail") {
			return href
		}
	}
	return ""
}

func (p *Provider) absolute(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return p.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (p *Provider) diagramURLs(doc *html.Node) []string {
	urls := []string{}
	for _, img := range scrape.All(doc, selStrokeGIF) {
		src := scrape.Attr(img, "src")
		if !strings.Contains(src, "giffile.action") {
			continue
		}
		urls = append(urls, p.absolute(src))
	}
	return urls
}

// glossLines builds one "🔂 char (pinyin): meaning" line per character row
// for multi-character terms, or a single line for a lone character.
// Duplicate lines are dropped.
func glossLines(doc *html.Node, term string) []string {
	lines := []string{}
	add := func(char, meaning string) {
		meaning = strings.TrimSpace(meaning)
		if char == "" || meaning == "" {
			return
		}
		pron, styled := tone.Style(char)
		line := fmt.Sprintf("🔂 %s (%s): %s", styled, pron, meaning)
		if !slices.Contains(lines, line) {
			lines = append(lines, line)
		}
	}

	if utf8.RuneCountInString(term) == 1 {
		add(term, scrape.Text(scrape.First(doc, selMeaning)))
		return lines
	}

	rows := scrape.All(doc, selCharRows)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		char := scrape.First(row, selRowChar)
		py := scrape.First(row, selRowPinyin)
		meaning := scrape.First(row, selMeaning)
		if char == nil || py == nil || meaning == nil {
			continue
		}
		add(strings.TrimSpace(scrape.Text(char)), scrape.Text(meaning))
	}
	return lines
}
