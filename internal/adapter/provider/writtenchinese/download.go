package writtenchinese

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/scrape"
	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/provider"
)

// maxDiagramBytes bounds a single downloaded stroke diagram.
const maxDiagramBytes = 4 << 20

// Download fetches a stroke diagram found by Lookup.
func (p *Provider) Download(ctx context.Context, diagramURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, diagramURL, nil)
	if err != nil {
		return nil, fmt.Errorf("writtenchinese: create request: %w", err)
	}
	req.Header.Set("User-Agent", scrape.UserAgent)

	resp, err := provider.DoWithRetry(ctx, p.httpClient, req, p.log, diagramURL)
	if err != nil {
		return nil, fmt.Errorf("writtenchinese: download failed: %w: %w", domain.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("writtenchinese: diagram %s: %w", diagramURL, domain.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("writtenchinese: unexpected status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDiagramBytes+1))
	if err != nil {
		return nil, fmt.Errorf("writtenchinese: read diagram: %w: %w", domain.ErrSourceUnavailable, err)
	}
	if len(data) == 0 || len(data) > maxDiagramBytes {
		return nil, fmt.Errorf("writtenchinese: diagram of %d bytes: %w", len(data), domain.ErrMalformedResponse)
	}

	p.log.DebugContext(ctx, "diagram downloaded", slog.String("url", diagramURL), slog.Int("bytes", len(data)))
	return data, nil
}
