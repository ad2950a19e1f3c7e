package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/havliksimon/anki-card-creator/internal/adapter/objectstore"
	"github.com/havliksimon/anki-card-creator/internal/adapter/postgres"
	"github.com/havliksimon/anki-card-creator/internal/adapter/postgres/audit"
	"github.com/havliksimon/anki-card-creator/internal/adapter/postgres/legacymedia"
	"github.com/havliksimon/anki-card-creator/internal/adapter/postgres/vocabulary"
	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/gtts"
	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/llm"
	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/mdbg"
	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/unsplash"
	"github.com/havliksimon/anki-card-creator/internal/adapter/provider/writtenchinese"
	"github.com/havliksimon/anki-card-creator/internal/adapter/sqlite"
	"github.com/havliksimon/anki-card-creator/internal/background"
	"github.com/havliksimon/anki-card-creator/internal/config"
	"github.com/havliksimon/anki-card-creator/internal/mediacache"
	"github.com/havliksimon/anki-card-creator/internal/service/deck"
	"github.com/havliksimon/anki-card-creator/internal/service/enrichment"
)

// Container holds the wired services. Optional backends are nil when not
// configured: Pool and Decks without a database DSN, Objects without an
// object-store endpoint, Legacy with the "none" backend.
type Container struct {
	Pool       *pgxpool.Pool
	Objects    *objectstore.Store
	Legacy     mediacache.LegacyStore
	Media      *mediacache.Cache
	Runner     *background.Runner
	Enrichment *enrichment.Service
	Decks      *deck.Service

	log     *slog.Logger
	closers []func() error
}

// NewContainer connects every configured backend and wires the services.
// On error, everything opened so far is closed.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Container, err error) {
	c := &Container{log: logger}
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	if cfg.Database.DSN != "" {
		if _, err := postgres.Migrate(ctx, cfg.Database.DSN, logger); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		c.Pool, err = postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, func() error { c.Pool.Close(); return nil })

		c.Decks = deck.NewService(logger, vocabulary.New(c.Pool), audit.New(c.Pool), postgres.NewTxManager(c.Pool), cfg.Decks.LegacyOwner)
	}

	if err := c.openMedia(ctx, cfg); err != nil {
		return nil, err
	}

	c.Enrichment = enrichment.NewService(logger, c.enrichmentDeps(cfg), enrichment.Config{
		StageTimeout:      cfg.Enrichment.StageTimeout,
		SentenceCount:     cfg.Enrichment.SentenceCount,
		MaxStrokeDiagrams: cfg.Enrichment.MaxStrokeDiagrams,
		MaxRelatedEntries: cfg.Enrichment.MaxRelatedEntries,
		BatchConcurrency:  cfg.Enrichment.BatchConcurrency,
		MirrorStrokes:     cfg.Enrichment.MirrorStrokes,
	})

	logger.InfoContext(ctx, "services wired",
		slog.Bool("database", c.Pool != nil),
		slog.Bool("objectstore", c.Objects != nil),
		slog.String("legacy_backend", cfg.Media.LegacyBackend),
		slog.String("llm_provider", cfg.Providers.LLMProvider),
	)
	return c, nil
}

func (c *Container) openMedia(ctx context.Context, cfg *config.Config) error {
	c.Runner = background.NewRunner(c.log, cfg.Media.BackgroundWorkers, cfg.Media.BackgroundTimeout)

	// Interface-typed tiers stay untyped nil when a backend is off.
	var tiers mediacache.Tiers

	if cfg.ObjectStore.Enabled() {
		store, err := objectstore.New(objectstore.Config{
			Endpoint:  cfg.ObjectStore.Endpoint,
			AccessKey: cfg.ObjectStore.AccessKey,
			SecretKey: cfg.ObjectStore.SecretKey,
			Bucket:    cfg.ObjectStore.Bucket,
			Region:    cfg.ObjectStore.Region,
			UseSSL:    cfg.ObjectStore.UseSSL,
			PublicURL: cfg.ObjectStore.PublicURL,
		}, c.log)
		if err != nil {
			return err
		}
		c.Objects = store
		tiers.Objects = store
	}

	switch cfg.Media.LegacyBackend {
	case config.LegacyBackendPostgres:
		c.Legacy = legacymedia.New(c.Pool)
	case config.LegacyBackendSQLite:
		store, err := sqlite.Open(ctx, cfg.Media.SQLitePath, c.log)
		if err != nil {
			return err
		}
		c.closers = append(c.closers, store.Close)
		c.Legacy = store
	}
	tiers.Legacy = c.Legacy

	ttsURL := cfg.Providers.TTSURL
	if ttsURL == "" {
		tiers.Synth = gtts.NewProvider(c.log)
	} else {
		tiers.Synth = gtts.NewProviderWithURL(ttsURL, cfg.Providers.TTSLang, c.log)
	}

	c.Media = mediacache.New(c.log, mediacache.Options{
		MemoryCapacity: cfg.Media.MemoryCapacity,
		ResolveTimeout: cfg.Media.ResolveTimeout,
		AppURL:         cfg.Media.AppURL,
		Background:     c.Runner,
	}, tiers)
	return nil
}

func (c *Container) enrichmentDeps(cfg *config.Config) enrichment.Deps {
	p := cfg.Providers

	deps := enrichment.Deps{Media: c.Media, Runner: c.Runner}

	if p.MDBGURL == "" {
		deps.Dictionary = mdbg.NewProvider(c.log)
	} else {
		deps.Dictionary = mdbg.NewProviderWithURL(p.MDBGURL, c.log)
	}

	var strokes *writtenchinese.Provider
	if p.WrittenChineseURL == "" {
		strokes = writtenchinese.NewProvider(c.log)
	} else {
		strokes = writtenchinese.NewProviderWithURL(p.WrittenChineseURL, c.log)
	}
	deps.Strokes = strokes
	deps.Downloader = strokes

	if p.UnsplashKey != "" {
		if p.UnsplashURL == "" {
			deps.Images = unsplash.NewProvider(p.UnsplashKey, c.log)
		} else {
			deps.Images = unsplash.NewProviderWithURL(p.UnsplashURL, p.UnsplashKey, c.log)
		}
	}

	if p.LLMKey != "" {
		var completer llm.Completer
		switch p.LLMProvider {
		case config.LLMProviderAnthropic:
			completer = llm.NewAnthropicCompleter(p.LLMKey, p.LLMBaseURL, p.LLMModel)
		default:
			completer = llm.NewOpenAICompleter(p.LLMKey, p.LLMBaseURL, p.LLMModel)
		}
		deps.Sentences = llm.NewGenerator(completer, cfg.Enrichment.SentenceCount, c.log)
	}

	return deps
}

// Close releases every opened backend in reverse order.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
