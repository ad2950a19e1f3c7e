package enrichment

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

// EnrichBatch enriches several terms with bounded parallelism and returns the
// records in input order. Progress messages are prefixed with the term.
func (s *Service) EnrichBatch(ctx context.Context, terms []string, sink ProgressSink) []domain.VocabularyRecord {
	records := make([]domain.VocabularyRecord, len(terms))
	progress := newProgress(sink)
	defer progress.close()

	var g errgroup.Group
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, term := range terms {
		g.Go(func() error {
			var termSink ProgressSink
			if sink != nil {
				termSink = func(stage Stage, message string) {
					if stage == StageDone {
						// The batch reports its own completion.
						return
					}
					progress.report(stage, term+": "+message)
				}
			}
			records[i] = s.Enrich(ctx, term, termSink)
			return nil
		})
	}
	_ = g.Wait()

	empty := 0
	for _, r := range records {
		if r.IsEmpty() {
			empty++
		}
	}
	s.log.InfoContext(ctx, "batch enriched",
		slog.Int("terms", len(terms)),
		slog.Int("empty", empty),
	)
	progress.report(StageDone, "Batch finished")
	return records
}
