package annotation

import (
	"time"

	"github.com/google/uuid"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// Highlight is a colored text-range annotation. Unlike a note its anchor is
// mandatory: a highlight without a resolvable text span is meaningless.
//
// The anchor is immutable after creation; only the color and the optional
// note back-reference change on update.
type Highlight struct {
	id        string
	ownerID   string
	location  Location
	anchor    anchor.Anchor
	color     Color
	noteID    string
	createdAt time.Time
	updatedAt time.Time
}

// NewHighlight creates a highlight with full validation. noteID is an
// optional weak reference to an explanatory note; referential checks against
// the store happen in the application layer, not here.
func NewHighlight(ownerID string, loc Location, anc anchor.Anchor, color Color, noteID string) (*Highlight, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerId cannot be empty")
	}
	if err := anc.Validate(-1); err != nil {
		return nil, err
	}
	if color == "" {
		color = ColorYellow
	}
	if _, err := ParseColor(string(color)); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	now := time.Now().UTC()
	return &Highlight{
		id:        uuid.New().String(),
		ownerID:   ownerID,
		location:  loc,
		anchor:    anc,
		color:     color,
		noteID:    noteID,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ID returns the highlight's unique identifier.
func (h *Highlight) ID() string { return h.id }

// OwnerID returns the owning session/user identity.
func (h *Highlight) OwnerID() string { return h.ownerID }

// Location returns where in the corpus the highlight lives.
func (h *Highlight) Location() Location { return h.location }

// Anchor returns the highlight's text anchor.
func (h *Highlight) Anchor() anchor.Anchor { return h.anchor }

// Color returns the highlight's color.
func (h *Highlight) Color() Color { return h.color }

// NoteID returns the id of the linked note, or "".
func (h *Highlight) NoteID() string { return h.noteID }

// CreatedAt returns when the highlight was created.
func (h *Highlight) CreatedAt() time.Time { return h.createdAt }

// UpdatedAt returns when the highlight was last updated.
func (h *Highlight) UpdatedAt() time.Time { return h.updatedAt }

// SetColor changes the highlight's color.
func (h *Highlight) SetColor(c Color) error {
	parsed, err := ParseColor(string(c))
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	h.color = parsed
	h.touch()
	return nil
}

// SetNoteID links the highlight to an explanatory note.
func (h *Highlight) SetNoteID(noteID string) {
	h.noteID = noteID
	h.touch()
}

// ClearNoteReference drops the note back-reference. Called when the
// referenced note is deleted; the highlight itself survives.
func (h *Highlight) ClearNoteReference() {
	h.noteID = ""
	h.touch()
}

func (h *Highlight) touch() {
	h.updatedAt = time.Now().UTC()
}
