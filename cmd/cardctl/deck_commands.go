package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/havliksimon/anki-card-creator/internal/domain"
)

func newDeckCommand(ctx *commandContext) *cobra.Command {
	deckCmd := &cobra.Command{
		Use:   "deck",
		Short: "Inspect and migrate deck identifiers",
	}

	deckCmd.AddCommand(newDeckEncodeCommand())
	deckCmd.AddCommand(newDeckDecodeCommand())
	deckCmd.AddCommand(newDeckListCommand(ctx))
	deckCmd.AddCommand(newDeckMigrateLegacyCommand(ctx))
	deckCmd.AddCommand(newDeckHistoryCommand(ctx))
	return deckCmd
}

func newDeckEncodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "encode <owner> <number>",
		Short:       "Print the storage id of an owner's deck",
		Args:        cobra.ExactArgs(2),
		Annotations: noConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("deck number %q: %w", args[1], err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), domain.NewDeckID(args[0], n).Encode())
			return nil
		},
	}
}

func newDeckDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "decode <id>...",
		Short:       "Show the owner and deck number of encoded deck ids",
		Args:        cobra.MinimumNArgs(1),
		Annotations: noConfig(),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, raw := range args {
				d := domain.DecodeDeckID(raw)
				legacy := ""
				if domain.IsLegacyNumericDeck(raw) {
					legacy = "yes"
				}
				rows = append(rows, []string{raw, d.OwnerID, strconv.Itoa(d.Number), d.Label(), legacy})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Owner", "Deck", "Label", "Legacy"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newDeckListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <owner>",
		Short: "List an owner's decks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.ensureContainer(cmd.Context())
			if err != nil {
				return err
			}
			if c.Decks == nil {
				return errNoDatabase
			}

			decks, err := c.Decks.ListDecks(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(decks))
			for _, d := range decks {
				rows = append(rows, []string{d.Encode(), strconv.Itoa(d.Number), d.Label()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Deck", "Label"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
}

func newDeckMigrateLegacyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-legacy",
		Short: "Reassign legacy numeric decks to the configured legacy owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.ensureContainer(cmd.Context())
			if err != nil {
				return err
			}
			if c.Decks == nil {
				return errNoDatabase
			}

			res, err := c.Decks.MigrateLegacyDecks(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d decks (%d records)\n", res.Decks, res.Records)
			return nil
		},
	}
}

func newDeckHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show the audit log of a deck, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.ensureContainer(cmd.Context())
			if err != nil {
				return err
			}
			if c.Decks == nil {
				return errNoDatabase
			}

			recs, err := c.Decks.History(cmd.Context(), domain.DecodeDeckID(args[0]), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(recs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show (0 for all)")
	return cmd
}

func renderHistory(recs []domain.AuditRecord) string {
	rows := make([][]string, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []string{
			r.CreatedAt.Local().Format(time.DateTime),
			r.Action.String(),
			r.Term,
			formatChanges(r.Changes),
		})
	}
	return renderTable(
		[]string{"When", "Action", "Term", "Changes"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func formatChanges(changes map[string]any) string {
	parts := make([]string, 0, len(changes))
	for _, k := range slices.Sorted(maps.Keys(changes)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, changes[k]))
	}
	return strings.Join(parts, " ")
}
