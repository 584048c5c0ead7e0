package annotation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// Note is a user annotation with free-form content and a location. A note
// may carry an anchor when it originated from a text selection, or none when
// it is a general note about a chapter.
type Note struct {
	id        string
	ownerID   string
	location  Location
	title     string
	content   string
	noteType  NoteType
	anchor    *anchor.Anchor
	tags      []string
	isPublic  bool
	createdAt time.Time
	updatedAt time.Time
}

// NewNote creates a note with full validation. The anchor is optional; when
// present its internal invariants must hold.
func NewNote(ownerID string, loc Location, title, content string, noteType NoteType, anc *anchor.Anchor, tags []string, isPublic bool) (*Note, error) {
	if ownerID == "" {
		return nil, pkgerrors.NewValidationError("ownerId cannot be empty")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, pkgerrors.NewValidationError("content cannot be empty")
	}
	if noteType == "" {
		noteType = NoteTypeGeneral
	}
	if _, err := ParseNoteType(string(noteType)); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if anc != nil {
		if err := anc.Validate(-1); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	return &Note{
		id:        uuid.New().String(),
		ownerID:   ownerID,
		location:  loc,
		title:     strings.TrimSpace(title),
		content:   content,
		noteType:  noteType,
		anchor:    cloneAnchor(anc),
		tags:      cloneTags(tags),
		isPublic:  isPublic,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ID returns the note's unique identifier.
func (n *Note) ID() string { return n.id }

// OwnerID returns the owning session/user identity.
func (n *Note) OwnerID() string { return n.ownerID }

// Location returns where in the corpus the note lives.
func (n *Note) Location() Location { return n.location }

// Title returns the optional note title.
func (n *Note) Title() string { return n.title }

// Content returns the note body.
func (n *Note) Content() string { return n.content }

// Type returns the note's classification.
func (n *Note) Type() NoteType { return n.noteType }

// Anchor returns a copy of the note's anchor, or nil for a general note.
func (n *Note) Anchor() *anchor.Anchor { return cloneAnchor(n.anchor) }

// Tags returns a copy of the note's tags in insertion order.
func (n *Note) Tags() []string { return cloneTags(n.tags) }

// IsPublic returns the visibility flag.
func (n *Note) IsPublic() bool { return n.isPublic }

// CreatedAt returns when the note was created.
func (n *Note) CreatedAt() time.Time { return n.createdAt }

// UpdatedAt returns when the note was last updated.
func (n *Note) UpdatedAt() time.Time { return n.updatedAt }

// UpdateContent replaces the note body.
func (n *Note) UpdateContent(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return pkgerrors.NewValidationError("content cannot be empty")
	}
	n.content = content
	n.touch()
	return nil
}

// SetTitle replaces the optional title.
func (n *Note) SetTitle(title string) {
	n.title = strings.TrimSpace(title)
	n.touch()
}

// SetType replaces the note's classification.
func (n *Note) SetType(t NoteType) error {
	parsed, err := ParseNoteType(string(t))
	if err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	n.noteType = parsed
	n.touch()
	return nil
}

// SetTags replaces the tag list, preserving the given order.
func (n *Note) SetTags(tags []string) {
	n.tags = cloneTags(tags)
	n.touch()
}

// SetVisibility sets the public flag.
func (n *Note) SetVisibility(public bool) {
	n.isPublic = public
	n.touch()
}

// SetAnchor replaces the note's anchor. Passing nil detaches the note from
// any text selection.
func (n *Note) SetAnchor(anc *anchor.Anchor) error {
	if anc != nil {
		if err := anc.Validate(-1); err != nil {
			return err
		}
	}
	n.anchor = cloneAnchor(anc)
	n.touch()
	return nil
}

func (n *Note) touch() {
	n.updatedAt = time.Now().UTC()
}

func cloneAnchor(a *anchor.Anchor) *anchor.Anchor {
	if a == nil {
		return nil
	}
	c := *a
	c.Path = append(anchor.StructuralPath(nil), a.Path...)
	return &c
}

func cloneTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{}
	}
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
