// Package anchor defines the durable descriptor of a text selection: the
// unit that is stored with a note or highlight and replayed later to rebuild
// the selection against a fresh rendering of the same chapter.
package anchor

import (
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// Anchor describes a span of text within one content container.
//
// StartOffset and EndOffset are code point offsets (inclusive start,
// exclusive end) into the concatenation of the container's text nodes in
// document order. Text is the exact captured string, kept for verification
// and display, never as the primary reconstruction key.
//
// An anchor is only meaningful against the specific rendering it was
// captured from. If the chapter's markup changes, offsets may point at the
// wrong text; resolution then fails soft rather than guessing.
type Anchor struct {
	Text        string         `json:"selectedText"`
	StartOffset int            `json:"selectionStart"`
	EndOffset   int            `json:"selectionEnd"`
	ContainerID string         `json:"elementId,omitempty"`
	Path        StructuralPath `json:"xpath,omitempty"`
}

// Degraded reports whether the anchor was captured without a stable
// container id and is therefore relative to the document root. Such anchors
// survive within one rendering but are fragile across re-renders.
func (a Anchor) Degraded() bool {
	return a.ContainerID == ""
}

// Length returns the anchored span's length in code points.
func (a Anchor) Length() int {
	return a.EndOffset - a.StartOffset
}

// Validate checks the anchor's internal invariants. totalTextLength is the
// current text length of the container the anchor is measured against; pass
// a negative value to skip the upper bound check when the container is not
// at hand.
func (a Anchor) Validate(totalTextLength int) error {
	if a.Text == "" {
		return pkgerrors.NewValidationError("anchor text cannot be empty")
	}
	if a.StartOffset < 0 {
		return pkgerrors.NewValidationError("anchor start offset cannot be negative")
	}
	if a.StartOffset >= a.EndOffset {
		return pkgerrors.NewValidationError("anchor start offset must precede end offset")
	}
	if totalTextLength >= 0 && a.EndOffset > totalTextLength {
		return pkgerrors.NewValidationError("anchor end offset exceeds container text length")
	}
	return nil
}
