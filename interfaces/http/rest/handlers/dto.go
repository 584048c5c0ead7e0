// Package handlers contains the REST handlers for notes, highlights, and
// reader content.
package handlers

import (
	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	"github.com/kyle-mirich/church-fathers-reader/pkg/utils"
)

// NoteResponse is the wire form of a note. Anchor fields are flattened into
// the top level, matching the stored record shape.
type NoteResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	WorkTitle    string `json:"workTitle"`
	PartTitle    string `json:"partTitle,omitempty"`
	ChapterTitle string `json:"chapterTitle"`
	Title        string `json:"title,omitempty"`
	Content      string `json:"content"`
	NoteType     string `json:"noteType"`
	// Anchor fields are promoted into the top level; a nil anchor omits
	// them entirely.
	*anchor.Anchor
	Tags      []string `json:"tags"`
	IsPublic  bool     `json:"isPublic"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

// HighlightResponse is the wire form of a highlight.
type HighlightResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	WorkTitle    string `json:"workTitle"`
	PartTitle    string `json:"partTitle,omitempty"`
	ChapterTitle string `json:"chapterTitle"`
	anchor.Anchor
	Color     string `json:"color"`
	NoteID    string `json:"noteId,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toNoteResponse(n *annotation.Note) NoteResponse {
	loc := n.Location()
	tags := n.Tags()
	if tags == nil {
		tags = []string{}
	}
	return NoteResponse{
		ID:           n.ID(),
		UserID:       n.OwnerID(),
		WorkTitle:    loc.WorkTitle,
		PartTitle:    loc.PartTitle,
		ChapterTitle: loc.ChapterTitle,
		Title:        n.Title(),
		Content:      n.Content(),
		NoteType:     string(n.Type()),
		Anchor:       n.Anchor(),
		Tags:         tags,
		IsPublic:     n.IsPublic(),
		CreatedAt:    utils.FormatRFC3339(n.CreatedAt()),
		UpdatedAt:    utils.FormatRFC3339(n.UpdatedAt()),
	}
}

func toNoteResponses(notes []*annotation.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}

func toHighlightResponse(h *annotation.Highlight) HighlightResponse {
	loc := h.Location()
	return HighlightResponse{
		ID:           h.ID(),
		UserID:       h.OwnerID(),
		WorkTitle:    loc.WorkTitle,
		PartTitle:    loc.PartTitle,
		ChapterTitle: loc.ChapterTitle,
		Anchor:       h.Anchor(),
		Color:        string(h.Color()),
		NoteID:       h.NoteID(),
		CreatedAt:    utils.FormatRFC3339(h.CreatedAt()),
		UpdatedAt:    utils.FormatRFC3339(h.UpdatedAt()),
	}
}

func toHighlightResponses(highlights []*annotation.Highlight) []HighlightResponse {
	out := make([]HighlightResponse, 0, len(highlights))
	for _, h := range highlights {
		out = append(out, toHighlightResponse(h))
	}
	return out
}
