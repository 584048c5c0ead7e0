// Package services holds the application-layer use cases. Services own the
// ownership and cross-reference rules that span repositories; the entities
// own everything that can be decided from a single record.
package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// CreateNoteInput carries everything needed to create a note. Anchor is
// optional: a note may stand on its own without a text selection.
type CreateNoteInput struct {
	WorkTitle    string
	PartTitle    string
	ChapterTitle string
	Title        string
	Content      string
	NoteType     string
	Anchor       *anchor.Anchor
	Tags         []string
	IsPublic     bool
}

// UpdateNoteInput carries a note update. Nil pointer fields are left
// untouched, so a partial update never clobbers fields the caller did not
// send.
type UpdateNoteInput struct {
	Title    *string
	Content  *string
	NoteType *string
	Tags     []string
	IsPublic *bool
	Anchor   *anchor.Anchor
}

// NoteService implements the note use cases. Every operation that touches
// an existing note distinguishes two failure modes: an id that matches
// nothing yields NOT_FOUND, while an id that matches a record owned by
// someone else yields UNAUTHORIZED. The two must never be conflated or an
// attacker could probe which ids exist.
type NoteService struct {
	notes      ports.NoteRepository
	highlights ports.HighlightRepository
	logger     *zap.Logger
}

func NewNoteService(notes ports.NoteRepository, highlights ports.HighlightRepository, logger *zap.Logger) *NoteService {
	return &NoteService{
		notes:      notes,
		highlights: highlights,
		logger:     logger,
	}
}

func (s *NoteService) CreateNote(ctx context.Context, ownerID string, input CreateNoteInput) (*annotation.Note, error) {
	loc, err := annotation.NewLocation(input.WorkTitle, input.PartTitle, input.ChapterTitle)
	if err != nil {
		return nil, err
	}
	noteType, err := annotation.ParseNoteType(input.NoteType)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	note, err := annotation.NewNote(ownerID, loc, input.Title, input.Content, noteType, input.Anchor, input.Tags, input.IsPublic)
	if err != nil {
		return nil, err
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}

	s.logger.Info("note created",
		zap.String("noteId", note.ID()),
		zap.String("userId", ownerID),
		zap.String("work", loc.WorkTitle),
	)
	return note, nil
}

// GetNote returns a note the caller may read: their own, or anyone's public
// note.
func (s *NoteService) GetNote(ctx context.Context, callerID, noteID string) (*annotation.Note, error) {
	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.OwnerID() != callerID && !note.IsPublic() {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	return note, nil
}

func (s *NoteService) ListNotes(ctx context.Context, ownerID string, filter ports.Filter) ([]*annotation.Note, error) {
	return s.notes.List(ctx, ownerID, filter)
}

func (s *NoteService) UpdateNote(ctx context.Context, ownerID, noteID string, input UpdateNoteInput) (*annotation.Note, error) {
	note, err := s.ownedNote(ctx, ownerID, noteID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		note.SetTitle(*input.Title)
	}
	if input.Content != nil {
		if err := note.UpdateContent(*input.Content); err != nil {
			return nil, err
		}
	}
	if input.NoteType != nil {
		noteType, err := annotation.ParseNoteType(*input.NoteType)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		if err := note.SetType(noteType); err != nil {
			return nil, err
		}
	}
	if input.Tags != nil {
		note.SetTags(input.Tags)
	}
	if input.IsPublic != nil {
		note.SetVisibility(*input.IsPublic)
	}
	if input.Anchor != nil {
		if err := note.SetAnchor(input.Anchor); err != nil {
			return nil, err
		}
	}

	if err := s.notes.Save(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// DeleteNote removes the note and then clears the note reference from every
// highlight of the same owner that pointed at it. Reference cleanup is best
// effort: the stores are not transactional across tables, so a failure is
// logged and the delete still succeeds. A dangling reference is tolerated
// by readers, which treat a missing note like no note at all.
func (s *NoteService) DeleteNote(ctx context.Context, ownerID, noteID string) error {
	note, err := s.ownedNote(ctx, ownerID, noteID)
	if err != nil {
		return err
	}
	if err := s.notes.Delete(ctx, note); err != nil {
		return err
	}
	s.clearNoteReferences(ctx, ownerID, noteID)

	s.logger.Info("note deleted",
		zap.String("noteId", noteID),
		zap.String("userId", ownerID),
	)
	return nil
}

func (s *NoteService) clearNoteReferences(ctx context.Context, ownerID, noteID string) {
	referencing, err := s.highlights.FindByNoteID(ctx, ownerID, noteID)
	if err != nil {
		s.logger.Warn("could not list highlights referencing deleted note",
			zap.String("noteId", noteID),
			zap.Error(err),
		)
		return
	}
	for _, h := range referencing {
		h.ClearNoteReference()
		if err := s.highlights.Save(ctx, h); err != nil {
			s.logger.Warn("could not clear note reference from highlight",
				zap.String("highlightId", h.ID()),
				zap.String("noteId", noteID),
				zap.Error(err),
			)
		}
	}
}

func (s *NoteService) ownedNote(ctx context.Context, ownerID, noteID string) (*annotation.Note, error) {
	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.OwnerID() != ownerID {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	return note, nil
}
