package annotation

import (
	"time"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// NoteRecord is the flat wire/storage shape of a note. Field names are the
// contract shared with the companion CRUD endpoints and must not drift.
type NoteRecord struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"userId"`
	WorkTitle      string    `json:"workTitle"`
	PartTitle      string    `json:"partTitle,omitempty"`
	ChapterTitle   string    `json:"chapterTitle"`
	Title          string    `json:"title,omitempty"`
	Content        string    `json:"content"`
	NoteType       string    `json:"noteType"`
	SelectedText   string    `json:"selectedText,omitempty"`
	SelectionStart *int      `json:"selectionStart,omitempty"`
	SelectionEnd   *int      `json:"selectionEnd,omitempty"`
	ElementID      string    `json:"elementId,omitempty"`
	XPath          string    `json:"xpath,omitempty"`
	Tags           []string  `json:"tags"`
	IsPublic       bool      `json:"isPublic"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// HighlightRecord is the flat wire/storage shape of a highlight.
type HighlightRecord struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"userId"`
	NoteID         string    `json:"noteId,omitempty"`
	WorkTitle      string    `json:"workTitle"`
	PartTitle      string    `json:"partTitle,omitempty"`
	ChapterTitle   string    `json:"chapterTitle"`
	SelectedText   string    `json:"selectedText"`
	Color          string    `json:"color"`
	SelectionStart int       `json:"selectionStart"`
	SelectionEnd   int       `json:"selectionEnd"`
	ElementID      string    `json:"elementId,omitempty"`
	XPath          string    `json:"xpath,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Record flattens the note into its wire shape.
func (n *Note) Record() NoteRecord {
	rec := NoteRecord{
		ID:           n.id,
		OwnerID:      n.ownerID,
		WorkTitle:    n.location.WorkTitle,
		PartTitle:    n.location.PartTitle,
		ChapterTitle: n.location.ChapterTitle,
		Title:        n.title,
		Content:      n.content,
		NoteType:     string(n.noteType),
		Tags:         cloneTags(n.tags),
		IsPublic:     n.isPublic,
		CreatedAt:    n.createdAt,
		UpdatedAt:    n.updatedAt,
	}
	if n.anchor != nil {
		start, end := n.anchor.StartOffset, n.anchor.EndOffset
		rec.SelectedText = n.anchor.Text
		rec.SelectionStart = &start
		rec.SelectionEnd = &end
		rec.ElementID = n.anchor.ContainerID
		rec.XPath = n.anchor.Path.String()
	}
	return rec
}

// Record flattens the highlight into its wire shape.
func (h *Highlight) Record() HighlightRecord {
	return HighlightRecord{
		ID:             h.id,
		OwnerID:        h.ownerID,
		NoteID:         h.noteID,
		WorkTitle:      h.location.WorkTitle,
		PartTitle:      h.location.PartTitle,
		ChapterTitle:   h.location.ChapterTitle,
		SelectedText:   h.anchor.Text,
		Color:          string(h.color),
		SelectionStart: h.anchor.StartOffset,
		SelectionEnd:   h.anchor.EndOffset,
		ElementID:      h.anchor.ContainerID,
		XPath:          h.anchor.Path.String(),
		CreatedAt:      h.createdAt,
		UpdatedAt:      h.updatedAt,
	}
}

// NoteFromRecord rebuilds a note entity from its stored shape, preserving
// identity and timestamps.
func NoteFromRecord(rec NoteRecord) (*Note, error) {
	if rec.ID == "" {
		return nil, pkgerrors.NewValidationError("note record has no id")
	}
	if rec.OwnerID == "" {
		return nil, pkgerrors.NewValidationError("note record has no owner")
	}
	loc, err := NewLocation(rec.WorkTitle, rec.PartTitle, rec.ChapterTitle)
	if err != nil {
		return nil, err
	}
	noteType, err := ParseNoteType(rec.NoteType)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	var anc *anchor.Anchor
	if rec.SelectedText != "" && rec.SelectionStart != nil && rec.SelectionEnd != nil {
		path, err := anchor.ParsePath(rec.XPath)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error())
		}
		anc = &anchor.Anchor{
			Text:        rec.SelectedText,
			StartOffset: *rec.SelectionStart,
			EndOffset:   *rec.SelectionEnd,
			ContainerID: rec.ElementID,
			Path:        path,
		}
		if err := anc.Validate(-1); err != nil {
			return nil, err
		}
	}

	return &Note{
		id:        rec.ID,
		ownerID:   rec.OwnerID,
		location:  loc,
		title:     rec.Title,
		content:   rec.Content,
		noteType:  noteType,
		anchor:    anc,
		tags:      cloneTags(rec.Tags),
		isPublic:  rec.IsPublic,
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
	}, nil
}

// HighlightFromRecord rebuilds a highlight entity from its stored shape.
func HighlightFromRecord(rec HighlightRecord) (*Highlight, error) {
	if rec.ID == "" {
		return nil, pkgerrors.NewValidationError("highlight record has no id")
	}
	if rec.OwnerID == "" {
		return nil, pkgerrors.NewValidationError("highlight record has no owner")
	}
	loc, err := NewLocation(rec.WorkTitle, rec.PartTitle, rec.ChapterTitle)
	if err != nil {
		return nil, err
	}
	color, err := ParseColor(rec.Color)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	path, err := anchor.ParsePath(rec.XPath)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	anc := anchor.Anchor{
		Text:        rec.SelectedText,
		StartOffset: rec.SelectionStart,
		EndOffset:   rec.SelectionEnd,
		ContainerID: rec.ElementID,
		Path:        path,
	}
	if err := anc.Validate(-1); err != nil {
		return nil, err
	}

	return &Highlight{
		id:        rec.ID,
		ownerID:   rec.OwnerID,
		location:  loc,
		anchor:    anc,
		color:     color,
		noteID:    rec.NoteID,
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
	}, nil
}
