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

func newNotesCommand(ctx *commandContext) *cobra.Command {
	var user string
	var work string
	var chapter string

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List a reader's notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *sqlite.Store) error {
				repo := sqlite.NewNoteRepository(store)
				notes, err := repo.List(cmd.Context(), user, ports.Filter{
					WorkTitle:    work,
					ChapterTitle: chapter,
				})
				if err != nil {
					return err
				}
				if len(notes) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no notes")
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCHAPTER\tTYPE\tTITLE\tCREATED")
				for _, n := range notes {
					loc := n.Location()
					fmt.Fprintf(w, "%s\t%s / %s\t%s\t%s\t%s\n",
						n.ID(),
						loc.WorkTitle, loc.ChapterTitle,
						n.Type(),
						preview(n.Title(), n.Content()),
						n.CreatedAt().Format(time.RFC3339),
					)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Reader id whose notes to list")
	cmd.Flags().StringVar(&work, "work", "", "Filter by work title")
	cmd.Flags().StringVar(&chapter, "chapter", "", "Filter by chapter title")
	cmd.MarkFlagRequired("user")

	return cmd
}

// preview picks the note title, falling back to a trimmed slice of content.
func preview(title, content string) string {
	if title != "" {
		return title
	}
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) > 40 {
		return string(runes[:40]) + "..."
	}
	return content
}
