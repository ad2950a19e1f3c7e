// Package gtts synthesizes Mandarin speech through the Google Translate
// text-to-speech endpoint.
package gtts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/provider"
)

const (
	defaultBaseURL = "https://translate.google.com"
	defaultLang    = "zh-CN"

	// maxChunkRunes is the longest text the endpoint accepts per request.
	maxChunkRunes = 100
)

// Provider returns MP3 audio for a piece of text.
type Provider struct {
	baseURL    string
	lang       string
	httpClient *http.Client
	log        *slog.Logger
}

// NewProvider creates a Provider with the default endpoint and language.
func NewProvider(logger *slog.Logger) *Provider {
	return NewProviderWithURL(defaultBaseURL, defaultLang, logger)
}

// NewProviderWithURL creates a Provider with a custom base URL (for testing).
func NewProviderWithURL(baseURL, lang string, logger *slog.Logger) *Provider {
	if lang == "" {
		lang = defaultLang
	}
	return &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		lang:       lang,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		log:        logger.With("adapter", "gtts"),
	}
}

// Synthesize returns the spoken audio for text. Long text is split into
// chunks whose MP3 streams are concatenated. Any failed chunk fails the call.
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := splitText(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("gtts: empty text: %w", domain.ErrValidation)
	}

	p.log.DebugContext(ctx, "gtts request", slog.String("text", text), slog.Int("chunks", len(chunks)))

	var out bytes.Buffer
	for i, chunk := range chunks {
		data, err := p.fetchChunk(ctx, chunk, i, len(chunks))
		if err != nil {
			return nil, err
		}
		out.Write(data)
	}
	return out.Bytes(), nil
}

func (p *Provider) fetchChunk(ctx context.Context, chunk string, idx, total int) ([]byte, error) {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", p.lang)
	q.Set("q", chunk)
	q.Set("idx", fmt.Sprint(idx))
	q.Set("total", fmt.Sprint(total))
	q.Set("textlen", fmt.Sprint(len([]rune(chunk))))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/translate_tts?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gtts: create request: %w", err)
	}
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := provider.DoWithRetry(ctx, p.httpClient, req, p.log, chunk)
	if err != nil {
		p.log.ErrorContext(ctx, "gtts request failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("gtts: request failed: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtts: unexpected status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gtts: read body: %w: %w", domain.ErrSourceUnavailable, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("gtts: empty audio: %w", domain.ErrMalformedResponse)
	}
	return data, nil
}

// breakAfter lists runes a chunk may end on.
const breakAfter = "，。！？；：、,.!?;: "

// splitText cuts text into chunks of at most limit runes, preferring to break
// after punctuation or whitespace.
func splitText(text string, limit int) []string {
	runes := []rune(strings.TrimSpace(text))
	var chunks []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			chunks = append(chunks, string(runes))
			break
		}
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if strings.ContainsRune(breakAfter, runes[i]) {
				cut = i + 1
				break
			}
		}
		if c := strings.TrimSpace(string(runes[:cut])); c != "" {
			chunks = append(chunks, c)
		}
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	return chunks
}
