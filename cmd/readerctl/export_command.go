package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/sqlite"
)

// exportDocument is the portable dump of one reader's annotations.
type exportDocument struct {
	UserID     string                       `json:"userId"`
	Notes      []annotation.NoteRecord      `json:"notes"`
	Highlights []annotation.HighlightRecord `json:"highlights"`
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var user string
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a reader's notes and highlights as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *sqlite.Store) error {
				notes, err := sqlite.NewNoteRepository(store).List(cmd.Context(), user, ports.Filter{})
				if err != nil {
					return err
				}
				highlights, err := sqlite.NewHighlightRepository(store).List(cmd.Context(), user, ports.Filter{})
				if err != nil {
					return err
				}

				doc := exportDocument{
					UserID:     user,
					Notes:      make([]annotation.NoteRecord, 0, len(notes)),
					Highlights: make([]annotation.HighlightRecord, 0, len(highlights)),
				}
				for _, n := range notes {
					doc.Notes = append(doc.Notes, n.Record())
				}
				for _, h := range highlights {
					doc.Highlights = append(doc.Highlights, h.Record())
				}

				dst := cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					defer f.Close()
					dst = f
				}

				enc := json.NewEncoder(dst)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Reader id to export")
	cmd.Flags().StringVar(&out, "out", "", "Write to a file instead of stdout")
	cmd.MarkFlagRequired("user")

	return cmd
}
