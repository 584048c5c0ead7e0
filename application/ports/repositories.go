// Package ports declares the persistence interfaces the application layer
// depends on. Implementations live under infrastructure/persistence.
package ports

import (
	"context"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
)

// Filter narrows listing queries by reading location. Zero-value fields
// match everything.
type Filter struct {
	WorkTitle    string
	ChapterTitle string
}

// NoteRepository persists notes.
//
// FindByID looks a note up by id alone, without an owner predicate, so that
// the service layer can tell an id that exists under another owner apart
// from one that does not exist at all. List returns only the owner's notes,
// newest first.
type NoteRepository interface {
	Create(ctx context.Context, note *annotation.Note) error
	Save(ctx context.Context, note *annotation.Note) error
	FindByID(ctx context.Context, id string) (*annotation.Note, error)
	Delete(ctx context.Context, note *annotation.Note) error
	List(ctx context.Context, ownerID string, filter Filter) ([]*annotation.Note, error)
}

// HighlightRepository persists highlights with the same contract shape as
// NoteRepository. FindByNoteID returns every highlight of the owner that
// references the given note, used to clear references when the note goes
// away.
type HighlightRepository interface {
	Create(ctx context.Context, h *annotation.Highlight) error
	Save(ctx context.Context, h *annotation.Highlight) error
	FindByID(ctx context.Context, id string) (*annotation.Highlight, error)
	Delete(ctx context.Context, h *annotation.Highlight) error
	List(ctx context.Context, ownerID string, filter Filter) ([]*annotation.Highlight, error)
	FindByNoteID(ctx context.Context, ownerID, noteID string) ([]*annotation.Highlight, error)
}
