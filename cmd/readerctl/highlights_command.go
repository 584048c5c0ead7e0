package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/sqlite"
)

func newHighlightsCommand(ctx *commandContext) *cobra.Command {
	var user string
	var work string
	var chapter string

	cmd := &cobra.Command{
		Use:   "highlights",
		Short: "List a reader's highlights",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *sqlite.Store) error {
				repo := sqlite.NewHighlightRepository(store)
				highlights, err := repo.List(cmd.Context(), user, ports.Filter{
					WorkTitle:    work,
					ChapterTitle: chapter,
				})
				if err != nil {
					return err
				}
				if len(highlights) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no highlights")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCHAPTER\tCOLOR\tTEXT\tNOTE\tCREATED")
				for _, h := range highlights {
					loc := h.Location()
					fmt.Fprintf(w, "%s\t%s / %s\t%s\t%s\t%s\t%s\n",
						h.ID(),
						loc.WorkTitle, loc.ChapterTitle,
						h.Color(),
						snippet(h.Anchor().Text),
						h.NoteID(),
						h.CreatedAt().Format(time.RFC3339),
					)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Reader id whose highlights to list")
	cmd.Flags().StringVar(&work, "work", "", "Filter by work title")
	cmd.Flags().StringVar(&chapter, "chapter", "", "Filter by chapter title")
	cmd.MarkFlagRequired("user")

	return cmd
}

func snippet(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return text
}
