// Package anchoring implements the two halves of the text-anchoring core:
// reducing a live selection to a durable anchor, and resolving a stored
// anchor back to a concrete range against the current rendering.
//
// Both directions walk the container's text nodes in document order and
// count code points, and nothing else. That symmetry is the correctness
// invariant of the whole subsystem: as long as a container's text content is
// unchanged between capture and restore, resolving an anchor selects
// exactly the captured text.
package anchoring

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/pkg/dom"
)

// ComputeOffset returns the code point offset of a position within
// container: the accumulated length of every text node preceding target in
// document order, plus the offset within target. target must be a text node
// inside container.
func ComputeOffset(container, target *html.Node, targetOffset int) (int, error) {
	if target == nil || target.Type != html.TextNode {
		return 0, fmt.Errorf("offset target must be a text node")
	}

	total := 0
	found := false
	dom.WalkText(container, func(t *html.Node) bool {
		if t == target {
			found = true
			return false
		}
		total += utf8.RuneCountInString(t.Data)
		return true
	})
	if !found {
		return 0, fmt.Errorf("target node is not inside the container")
	}
	return total + targetOffset, nil
}

// ResolveRange is the inverse of ComputeOffset: it walks the container's
// text accumulating lengths and picks the text node and intra-node offset
// where the running total first reaches each of the anchor's offsets.
//
// A nil return means the anchor does not fit the container's current text,
// either because the content changed since capture or because the anchor is
// corrupt. That is a recoverable condition for callers, not a failure.
func ResolveRange(container *html.Node, anc anchor.Anchor) *dom.Range {
	if anc.StartOffset < 0 || anc.StartOffset >= anc.EndOffset {
		return nil
	}

	var rng dom.Range
	current := 0
	dom.WalkText(container, func(t *html.Node) bool {
		length := utf8.RuneCountInString(t.Data)

		// Strict comparison: a start offset landing exactly on the seam
		// between two text nodes belongs to the following node at offset
		// zero, never at the end of the preceding one, so the resulting
		// range starts inside the covered text.
		if rng.Start.Node == nil && current+length > anc.StartOffset {
			rng.Start = dom.Position{Node: t, Offset: anc.StartOffset - current}
		}
		if rng.End.Node == nil && current+length >= anc.EndOffset {
			rng.End = dom.Position{Node: t, Offset: anc.EndOffset - current}
			return false
		}

		current += length
		return true
	})

	if rng.Start.Node == nil || rng.End.Node == nil {
		return nil
	}
	return &rng
}
