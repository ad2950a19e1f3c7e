package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/provider"
	"github.com/havliksimon/anki-card-creator/internal/tone"
)

func (s *Service) dictionaryStage(ctx context.Context, term string) (dictionaryResult, error) {
	if s.deps.Dictionary == nil {
		return dictionaryResult{}, nil
	}

	candidates, err := s.deps.Dictionary.Search(ctx, term)
	if err != nil {
		return dictionaryResult{}, fmt.Errorf("dictionary %s: %w", term, err)
	}
	if len(candidates) == 0 {
		return dictionaryResult{unknown: true}, fmt.Errorf("dictionary %s: %w", term, domain.ErrNotFound)
	}

	idx := pickCandidate(candidates, term)
	chosen := candidates[idx]

	var res dictionaryResult
	res.styledPronunciation, res.styledTerm = styleCandidate(chosen, term)
	res.traditional = chosen.Traditional
	res.translation = chosen.Definition
	res.related = s.relatedEntries(candidates, idx)
	res.audioRef = s.resolveAudio(ctx, term)
	return res, nil
}

func (s *Service) strokeStage(ctx context.Context, term string) (strokeResult, error) {
	if s.deps.Strokes == nil {
		return strokeResult{}, nil
	}

	found, err := s.deps.Strokes.Lookup(ctx, term)
	if err != nil {
		return strokeResult{}, fmt.Errorf("strokes %s: %w", term, err)
	}

	refs := found.DiagramURLs
	if len(refs) > s.cfg.MaxStrokeDiagrams {
		refs = refs[:s.cfg.MaxStrokeDiagrams]
	}
	res := strokeResult{
		gloss: strings.Join(found.GlossLines, " "),
		refs:  append([]string(nil), refs...),
	}
	if res.gloss == "" && len(res.refs) == 0 {
		return strokeResult{}, fmt.Errorf("strokes %s: %w", term, domain.ErrNotFound)
	}

	if s.cfg.MirrorStrokes {
		s.mirrorStrokes(ctx, term, res.refs)
	}
	return res, nil
}

func (s *Service) sentencesStage(ctx context.Context, term string) (sentencesResult, error) {
	if s.deps.Sentences == nil {
		return sentencesResult{}, nil
	}

	generated, err := s.deps.Sentences.Generate(ctx, term)
	if err != nil {
		return sentencesResult{}, fmt.Errorf("sentences %s: %w", term, err)
	}
	if len(generated) != s.cfg.SentenceCount {
		return sentencesResult{}, fmt.Errorf("sentences %s: got %d of %d: %w",
			term, len(generated), s.cfg.SentenceCount, domain.ErrMalformedResponse)
	}
	for i, g := range generated {
		if strings.TrimSpace(g.Chinese) == "" || strings.TrimSpace(g.English) == "" {
			return sentencesResult{}, fmt.Errorf("sentences %s: sentence %d incomplete: %w",
				term, i+1, domain.ErrMalformedResponse)
		}
	}

	out := make([]domain.ExampleSentence, len(generated))
	var g errgroup.Group
	for i, gen := range generated {
		g.Go(func() error {
			chinese := strings.TrimSpace(gen.Chinese)
			pron, styled := tone.Style(chinese)
			out[i] = domain.ExampleSentence{
				SourceText:          chinese,
				StyledText:          styled,
				StyledPronunciation: pron,
				TranslationText:     strings.TrimSpace(gen.English),
				AudioRef:            s.resolveAudio(ctx, chinese),
			}
			return nil
		})
	}
	_ = g.Wait()

	return sentencesResult{sentences: out}, nil
}

func (s *Service) imageStage(ctx context.Context, term string) (imageResult, error) {
	if s.deps.Images == nil {
		return imageResult{}, nil
	}

	ref, err := s.deps.Images.Search(ctx, term)
	if err != nil {
		return imageResult{}, fmt.Errorf("image %s: %w", term, err)
	}
	if ref == "" {
		return imageResult{}, fmt.Errorf("image %s: %w", term, domain.ErrNotFound)
	}
	return imageResult{ref: ref}, nil
}

// resolveAudio returns a reference to the spoken audio for text, or "" when
// it cannot be produced.
func (s *Service) resolveAudio(ctx context.Context, text string) string {
	if s.deps.Media == nil {
		return ""
	}
	asset, err := s.deps.Media.Resolve(ctx, domain.AudioKey(text))
	if err != nil {
		s.log.WarnContext(ctx, "audio unavailable",
			slog.String("text", text),
			slog.String("kind", domain.ErrorKind(err)),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return asset.URL
}

// relatedEntries turns the candidates that were not chosen into related
// entries and prewarms their audio.
func (s *Service) relatedEntries(candidates []provider.DictionaryCandidate, chosen int) []domain.RelatedEntry {
	related := make([]domain.RelatedEntry, 0, s.cfg.MaxRelatedEntries)
	for i, c := range candidates {
		if len(related) >= s.cfg.MaxRelatedEntries {
			break
		}
		if i == chosen || c.Term == "" {
			continue
		}

		pron, styled := styleCandidate(c, c.Term)
		entry := domain.RelatedEntry{
			Term:                c.Term,
			StyledTerm:          styled,
			StyledPronunciation: pron,
			Definition:          c.Definition,
		}
		if s.deps.Media != nil {
			key := domain.AudioKey(c.Term)
			entry.AudioRef = s.deps.Media.Reference(key)
			s.deps.Media.Prewarm(key)
		}
		related = append(related, entry)
	}
	return related
}

// mirrorStrokes copies the remote diagrams into the media cache in the
// background so they can be served from /api/stroke.
func (s *Service) mirrorStrokes(ctx context.Context, term string, urls []string) {
	if s.deps.Runner == nil || s.deps.Downloader == nil || s.deps.Media == nil {
		s.log.DebugContext(ctx, "stroke mirroring not configured")
		return
	}
	for i, u := range urls {
		key := domain.StrokeKey(term, i+1)
		s.deps.Runner.Go("mirror "+key.String(), func(ctx context.Context) error {
			data, err := s.deps.Downloader.Download(ctx, u)
			if err != nil {
				return fmt.Errorf("download %s: %w", u, err)
			}
			return s.deps.Media.Store(ctx, key, data)
		})
	}
}

func styleCandidate(c provider.DictionaryCandidate, fallback string) (string, string) {
	text := c.Term
	if text == "" {
		text = fallback
	}
	if len(c.Syllables) > 0 {
		return tone.StyleSyllables(c.Syllables, text)
	}
	return tone.Style(text)
}
