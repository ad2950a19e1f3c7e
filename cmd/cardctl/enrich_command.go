package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/service/enrichment"
	"github.com/havliksimon/anki-card-creator/internal/tone"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatCSV   = "csv"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var (
		format string
		deckID string
		quiet  bool
	)

	cmd := &cobra.Command{
		Use:   "enrich <word>...",
		Short: "Enrich Chinese terms and print the resulting records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatTable, formatJSON, formatCSV:
			default:
				return fmt.Errorf("unknown format %q (want table, json or csv)", format)
			}

			c, err := ctx.ensureContainer(cmd.Context())
			if err != nil {
				return err
			}
			if deckID != "" && c.Decks == nil {
				return errNoDatabase
			}

			var sink enrichment.ProgressSink
			if !quiet {
				stderr := cmd.ErrOrStderr()
				sink = func(_ enrichment.Stage, message string) {
					fmt.Fprintln(stderr, message)
				}
			}

			records := c.Enrichment.EnrichBatch(cmd.Context(), args, sink)

			if deckID != "" {
				deck := domain.DecodeDeckID(deckID)
				for _, rec := range records {
					if rec.IsEmpty() {
						fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: no data found\n", rec.Term)
						continue
					}
					if err := c.Decks.SaveRecord(cmd.Context(), deck, rec); err != nil {
						return err
					}
				}
			}

			return writeRecords(cmd.OutOrStdout(), format, records)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTable, "Output format: table, json or csv")
	cmd.Flags().StringVar(&deckID, "deck", "", "Save non-empty records into this deck id")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress messages")
	return cmd
}

func writeRecords(w io.Writer, format string, records []domain.VocabularyRecord) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case formatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write(domain.ExportColumns); err != nil {
			return err
		}
		for _, rec := range records {
			if err := cw.Write(rec.ExportRow()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	default:
		_, err := fmt.Fprintln(w, renderRecords(records))
		return err
	}
}

// renderRecords summarizes records with tone markup stripped.
func renderRecords(records []domain.VocabularyRecord) string {
	headers := []string{"Term", "Pinyin", "Translation", "Sentences", "Strokes", "Related"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		translation := rec.Translation
		if rec.IsEmpty() {
			translation = "(no data found)"
		}
		rows = append(rows, []string{
			rec.Term,
			tone.Strip(rec.StyledPronunciation),
			strings.TrimSpace(translation),
			strconv.Itoa(len(rec.ExampleSentences)),
			strconv.Itoa(len(rec.StrokeDiagramRefs)),
			strconv.Itoa(len(rec.RelatedEntries)),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight})
}
