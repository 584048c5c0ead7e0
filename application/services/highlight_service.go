package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// CreateHighlightInput carries everything needed to create a highlight.
// Unlike notes, the anchor is mandatory: a highlight is nothing but a
// colored anchor.
type CreateHighlightInput struct {
	WorkTitle    string
	PartTitle    string
	ChapterTitle string
	Anchor       anchor.Anchor
	Color        string
	NoteID       string
}

// UpdateHighlightInput carries a highlight update. Only the color and the
// note reference are mutable; the anchor is frozen at creation because
// moving it would silently change what the user highlighted.
type UpdateHighlightInput struct {
	Color  *string
	NoteID *string
}

type HighlightService struct {
	highlights ports.HighlightRepository
	notes      ports.NoteRepository
	logger     *zap.Logger
}

func NewHighlightService(highlights ports.HighlightRepository, notes ports.NoteRepository, logger *zap.Logger) *HighlightService {
	return &HighlightService{
		highlights: highlights,
		notes:      notes,
		logger:     logger,
	}
}

func (s *HighlightService) CreateHighlight(ctx context.Context, ownerID string, input CreateHighlightInput) (*annotation.Highlight, error) {
	loc, err := annotation.NewLocation(input.WorkTitle, input.PartTitle, input.ChapterTitle)
	if err != nil {
		return nil, err
	}
	if input.NoteID != "" {
		if err := s.checkNoteReference(ctx, ownerID, input.NoteID); err != nil {
			return nil, err
		}
	}

	h, err := annotation.NewHighlight(ownerID, loc, input.Anchor, annotation.Color(input.Color), input.NoteID)
	if err != nil {
		return nil, err
	}
	if err := s.highlights.Create(ctx, h); err != nil {
		return nil, err
	}

	s.logger.Info("highlight created",
		zap.String("highlightId", h.ID()),
		zap.String("userId", ownerID),
		zap.String("color", string(h.Color())),
	)
	return h, nil
}

func (s *HighlightService) GetHighlight(ctx context.Context, ownerID, highlightID string) (*annotation.Highlight, error) {
	return s.ownedHighlight(ctx, ownerID, highlightID)
}

func (s *HighlightService) ListHighlights(ctx context.Context, ownerID string, filter ports.Filter) ([]*annotation.Highlight, error) {
	return s.highlights.List(ctx, ownerID, filter)
}

func (s *HighlightService) UpdateHighlight(ctx context.Context, ownerID, highlightID string, input UpdateHighlightInput) (*annotation.Highlight, error) {
	h, err := s.ownedHighlight(ctx, ownerID, highlightID)
	if err != nil {
		return nil, err
	}

	if input.Color != nil {
		color, err := annotation.ParseColor(*input.Color)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		if err := h.SetColor(color); err != nil {
			return nil, err
		}
	}
	if input.NoteID != nil {
		if *input.NoteID == "" {
			h.ClearNoteReference()
		} else {
			if err := s.checkNoteReference(ctx, ownerID, *input.NoteID); err != nil {
				return nil, err
			}
			h.SetNoteID(*input.NoteID)
		}
	}

	if err := s.highlights.Save(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HighlightService) DeleteHighlight(ctx context.Context, ownerID, highlightID string) error {
	h, err := s.ownedHighlight(ctx, ownerID, highlightID)
	if err != nil {
		return err
	}
	if err := s.highlights.Delete(ctx, h); err != nil {
		return err
	}

	s.logger.Info("highlight deleted",
		zap.String("highlightId", highlightID),
		zap.String("userId", ownerID),
	)
	return nil
}

// checkNoteReference rejects a noteId that does not name an existing note
// of the same owner. A highlight may only annotate its owner's notes.
func (s *HighlightService) checkNoteReference(ctx context.Context, ownerID, noteID string) error {
	note, err := s.notes.FindByID(ctx, noteID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return pkgerrors.NewInvalidReferenceError("note", noteID)
		}
		return err
	}
	if note.OwnerID() != ownerID {
		return pkgerrors.NewInvalidReferenceError("note", noteID)
	}
	return nil
}

func (s *HighlightService) ownedHighlight(ctx context.Context, ownerID, highlightID string) (*annotation.Highlight, error) {
	h, err := s.highlights.FindByID(ctx, highlightID)
	if err != nil {
		return nil, err
	}
	if h.OwnerID() != ownerID {
		return nil, pkgerrors.NewUnauthorizedError("")
	}
	return h, nil
}
