package enrichment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/pkg/ctxutil"
)

type dictionaryResult struct {
	styledPronunciation string
	styledTerm          string
	traditional         string
	translation         string
	audioRef            string
	related             []domain.RelatedEntry
	// unknown is set when the dictionary answered with no candidates at all.
	unknown bool
}

type strokeResult struct {
	gloss string
	refs  []string
}

type sentencesResult struct {
	sentences []domain.ExampleSentence
}

type imageResult struct {
	ref string
}

// Enrich builds the record for term. It never fails: every stage that errors,
// panics or times out contributes nothing, and a term nothing is known about
// yields a record whose IsEmpty reports true. A dictionary that answers with
// no candidates marks the term as unknown and the output of the other stages
// is discarded.
//
// Stages run on a context detached from ctx. If the caller gives up, Enrich
// returns an empty record at once while in-flight stages finish in the
// background so their cache writes are kept.
func (s *Service) Enrich(ctx context.Context, term string, sink ProgressSink) domain.VocabularyRecord {
	term = domain.NormalizeTerm(term)
	rec := domain.NewVocabularyRecord()
	rec.Term = term
	if term == "" {
		return rec
	}

	progress := newProgress(sink)
	defer progress.close()

	var (
		dict  dictionaryResult
		strk  strokeResult
		sents sentencesResult
		img   imageResult
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		g, gctx := errgroup.WithContext(ctxutil.Detach(ctx))
		s.runStage(g, gctx, progress, StageDictionary, term, func(ctx context.Context) error {
			var err error
			dict, err = s.dictionaryStage(ctx, term)
			return err
		})
		s.runStage(g, gctx, progress, StageStrokes, term, func(ctx context.Context) error {
			var err error
			strk, err = s.strokeStage(ctx, term)
			return err
		})
		s.runStage(g, gctx, progress, StageSentences, term, func(ctx context.Context) error {
			var err error
			sents, err = s.sentencesStage(ctx, term)
			return err
		})
		s.runStage(g, gctx, progress, StageImage, term, func(ctx context.Context) error {
			var err error
			img, err = s.imageStage(ctx, term)
			return err
		})
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.log.WarnContext(ctx, "enrichment abandoned by caller",
			slog.String("term", term),
			slog.String("error", ctx.Err().Error()),
		)
		return rec
	}

	if dict.unknown {
		s.log.InfoContext(ctx, "unknown term", slog.String("term", term))
		progress.report(StageDone, fmt.Sprintf("No data found for %s", term))
		return rec
	}

	rec.StyledPronunciation = dict.styledPronunciation
	rec.StyledTerm = dict.styledTerm
	rec.Traditional = dict.traditional
	rec.Translation = dict.translation
	rec.PronunciationAudioRef = dict.audioRef
	if dict.related != nil {
		rec.RelatedEntries = dict.related
	}
	rec.Gloss = strk.gloss
	if strk.refs != nil {
		rec.StrokeDiagramRefs = strk.refs
	}
	if sents.sentences != nil {
		rec.ExampleSentences = sents.sentences
	}
	rec.IllustrativeImageRef = img.ref

	if rec.IsEmpty() {
		s.log.InfoContext(ctx, "no data found", slog.String("term", term))
		progress.report(StageDone, fmt.Sprintf("No data found for %s", term))
	} else {
		progress.report(StageDone, fmt.Sprintf("Finished %s", term))
	}
	return rec
}

// runStage starts fn under its own timeout. The stage never fails the group:
// errors and panics are logged and the stage result stays empty.
func (s *Service) runStage(
	g *errgroup.Group,
	ctx context.Context,
	progress *progress,
	stage Stage,
	term string,
	fn func(ctx context.Context) error,
) {
	g.Go(func() error {
		progress.report(stage, startMessage(stage, term))

		sctx, cancel := context.WithTimeout(ctx, s.cfg.StageTimeout)
		defer cancel()

		err := safeRun(sctx, fn)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNotFound):
			s.log.DebugContext(ctx, "stage found nothing",
				slog.String("stage", string(stage)),
				slog.String("term", term),
			)
		default:
			s.log.WarnContext(ctx, "stage failed",
				slog.String("stage", string(stage)),
				slog.String("term", term),
				slog.String("kind", domain.ErrorKind(err)),
				slog.String("error", err.Error()),
			)
		}
		progress.report(stage, doneMessage(stage, err))
		return nil
	})
}

func safeRun(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}

func startMessage(stage Stage, term string) string {
	switch stage {
	case StageDictionary:
		return "Looking up " + term + " in the dictionary"
	case StageStrokes:
		return "Fetching stroke order for " + term
	case StageSentences:
		return "Generating example sentences for " + term
	case StageImage:
		return "Searching an image for " + term
	}
	return string(stage)
}

func doneMessage(stage Stage, err error) string {
	name := strings.ToUpper(string(stage[:1])) + string(stage[1:])
	switch {
	case err == nil:
		return name + " done"
	case errors.Is(err, domain.ErrNotFound):
		return name + ": nothing found"
	default:
		return name + " unavailable"
	}
}

// progress serializes sink calls and drops them once Enrich has returned.
type progress struct {
	mu     sync.Mutex
	sink   ProgressSink
	closed atomic.Bool
}

func newProgress(sink ProgressSink) *progress {
	return &progress{sink: sink}
}

func (p *progress) report(stage Stage, message string) {
	if p.sink == nil || p.closed.Load() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return
	}
	p.sink(stage, message)
}

func (p *progress) close() {
	p.mu.Lock()
	p.closed.Store(true)
	p.mu.Unlock()
}
