package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.EnrichRatePerMinute < 0 {
		return fmt.Errorf("server.enrich_rate_per_minute must be >= 0 (got %d)", c.Server.EnrichRatePerMinute)
	}
	if err := c.Enrichment.validate(); err != nil {
		return fmt.Errorf("enrichment: %w", err)
	}
	if err := c.Media.validate(); err != nil {
		return fmt.Errorf("media: %w", err)
	}
	if c.Media.LegacyBackend == LegacyBackendPostgres && c.Database.DSN == "" {
		return fmt.Errorf("media.legacy_backend %q requires database.dsn", LegacyBackendPostgres)
	}
	if c.ObjectStore.Enabled() && (c.ObjectStore.AccessKey == "" || c.ObjectStore.SecretKey == "") {
		return fmt.Errorf("objectstore: access_key and secret_key are required when endpoint is set")
	}

	llm := strings.ToLower(c.Providers.LLMProvider)
	if !slices.Contains([]string{LLMProviderOpenAI, LLMProviderAnthropic}, llm) {
		return fmt.Errorf("providers.llm_provider must be %q or %q (got %q)", LLMProviderOpenAI, LLMProviderAnthropic, c.Providers.LLMProvider)
	}
	c.Providers.LLMProvider = llm

	if c.Decks.LegacyOwner == "" {
		return fmt.Errorf("decks.legacy_owner must not be empty")
	}

	return nil
}

func (e EnrichmentConfig) validate() error {
	if e.StageTimeout <= 0 {
		return fmt.Errorf("stage_timeout must be > 0 (got %v)", e.StageTimeout)
	}
	if e.SentenceCount < 1 {
		return fmt.Errorf("sentence_count must be >= 1 (got %d)", e.SentenceCount)
	}
	if e.MaxStrokeDiagrams < 1 || e.MaxStrokeDiagrams > domain.MaxStrokeDiagrams {
		return fmt.Errorf("max_stroke_diagrams must be in [1, %d] (got %d)", domain.MaxStrokeDiagrams, e.MaxStrokeDiagrams)
	}
	if e.MaxRelatedEntries < 0 {
		return fmt.Errorf("max_related_entries must be >= 0 (got %d)", e.MaxRelatedEntries)
	}
	if e.BatchConcurrency < 1 {
		return fmt.Errorf("batch_concurrency must be >= 1 (got %d)", e.BatchConcurrency)
	}
	return nil
}

func (m *MediaConfig) validate() error {
	if m.MemoryCapacity < 1 {
		return fmt.Errorf("memory_capacity must be >= 1 (got %d)", m.MemoryCapacity)
	}
	if m.ResolveTimeout <= 0 {
		return fmt.Errorf("resolve_timeout must be > 0 (got %v)", m.ResolveTimeout)
	}
	if m.BackgroundWorkers < 1 {
		return fmt.Errorf("background_workers must be >= 1 (got %d)", m.BackgroundWorkers)
	}

	m.LegacyBackend = strings.ToLower(m.LegacyBackend)
	switch m.LegacyBackend {
	case LegacyBackendPostgres, LegacyBackendNone:
	case LegacyBackendSQLite:
		if m.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("legacy_backend must be one of postgres, sqlite, none (got %q)", m.LegacyBackend)
	}

	m.AppURL = strings.TrimRight(m.AppURL, "/")
	return nil
}
