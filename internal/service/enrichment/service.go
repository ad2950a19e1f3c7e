// Package enrichment assembles a VocabularyRecord for a Chinese term from
// independent, individually fault-tolerant source stages.
package enrichment

import (
	"context"
	"log/slog"
	"time"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/mediacache"
	"github.com/havliksimon/anki-card-creator/internal/provider"
)

// DictionarySource returns dictionary candidates for a term, best first.
// An empty result means the dictionary does not know the term.
type DictionarySource interface {
	Search(ctx context.Context, term string) ([]provider.DictionaryCandidate, error)
}

// StrokeSource returns stroke-order diagrams and per-character glosses.
type StrokeSource interface {
	Lookup(ctx context.Context, term string) (provider.StrokeResult, error)
}

// SentenceSource generates example sentences that use a term.
type SentenceSource interface {
	Generate(ctx context.Context, term string) ([]provider.Sentence, error)
}

// ImageSource returns one illustrative image URL, or "" when none exists.
type ImageSource interface {
	Search(ctx context.Context, term string) (string, error)
}

// MediaCache resolves and references audio and stroke-diagram assets.
type MediaCache interface {
	Resolve(ctx context.Context, key domain.MediaAssetKey) (mediacache.Asset, error)
	Store(ctx context.Context, key domain.MediaAssetKey, data []byte) error
	Prewarm(key domain.MediaAssetKey)
	Reference(key domain.MediaAssetKey) string
}

// TaskRunner runs best-effort work that outlives the request.
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Downloader fetches a remote asset.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Deps are the collaborators of the Service. Any source may be nil, in
// which case its stage contributes nothing. Runner and Downloader are only
// needed for stroke mirroring.
type Deps struct {
	Dictionary DictionarySource
	Strokes    StrokeSource
	Sentences  SentenceSource
	Images     ImageSource
	Media      MediaCache
	Runner     TaskRunner
	Downloader Downloader
}

// Config tunes the aggregator.
type Config struct {
	StageTimeout      time.Duration
	SentenceCount     int
	MaxStrokeDiagrams int
	MaxRelatedEntries int
	BatchConcurrency  int
	MirrorStrokes     bool
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		StageTimeout:      20 * time.Second,
		SentenceCount:     3,
		MaxStrokeDiagrams: domain.MaxStrokeDiagrams,
		MaxRelatedEntries: 5,
		BatchConcurrency:  2,
	}
}

// Stage names a step reported to a ProgressSink.
type Stage string

const (
	StageDictionary Stage = "dictionary"
	StageStrokes    Stage = "strokes"
	StageSentences  Stage = "sentences"
	StageImage      Stage = "image"
	StageDone       Stage = "done"
)

// ProgressSink observes stage starts and completions. Calls are serialized
// and stop once Enrich has returned.
type ProgressSink func(stage Stage, message string)

// Service is the source aggregator.
type Service struct {
	log  *slog.Logger
	deps Deps
	cfg  Config
}

// NewService creates a new enrichment service. Zero config values fall back
// to DefaultConfig.
func NewService(log *slog.Logger, deps Deps, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = def.StageTimeout
	}
	if cfg.SentenceCount <= 0 {
		cfg.SentenceCount = def.SentenceCount
	}
	if cfg.MaxStrokeDiagrams <= 0 || cfg.MaxStrokeDiagrams > domain.MaxStrokeDiagrams {
		cfg.MaxStrokeDiagrams = def.MaxStrokeDiagrams
	}
	if cfg.MaxRelatedEntries < 0 {
		cfg.MaxRelatedEntries = def.MaxRelatedEntries
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = def.BatchConcurrency
	}
	return &Service{
		log:  log.With("service", "enrichment"),
		deps: deps,
		cfg:  cfg,
	}
}
