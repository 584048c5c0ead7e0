package dom

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// ErrCrossBoundary is returned by SurroundContents when the range spans
// element boundaries that prevent simple enclosure. Callers fall back to
// ExtractInto, which handles the general case.
var ErrCrossBoundary = errors.New("range crosses element boundaries")

// Position identifies a point inside a text node. Offset is measured in code
// points from the start of the node's data.
type Position struct {
	Node   *html.Node
	Offset int
}

// Selection represents a user-made selection between two text positions,
// start before end in document order.
type Selection struct {
	Start Position
	End   Position
}

// Collapsed reports whether the selection has zero length.
func (s Selection) Collapsed() bool {
	return s.Start.Node == nil || s.End.Node == nil ||
		(s.Start.Node == s.End.Node && s.Start.Offset == s.End.Offset)
}

// CommonAncestor returns the lowest node containing both boundary points.
func (s Selection) CommonAncestor() *html.Node {
	return CommonAncestor(s.Start.Node, s.End.Node)
}

// Text returns the visible text between the selection's boundary points.
func (s Selection) Text() string {
	return Range{Start: s.Start, End: s.End}.Text()
}

// Range is a resolved span between two text positions. Both boundary nodes
// must be text nodes within the same tree.
type Range struct {
	Start Position
	End   Position
}

// Text returns the concatenation of the visible text covered by the range.
func (r Range) Text() string {
	if r.Start.Node == nil || r.End.Node == nil {
		return ""
	}
	if r.Start.Node == r.End.Node {
		return substr(r.Start.Node.Data, r.Start.Offset, r.End.Offset)
	}

	root := CommonAncestor(r.Start.Node, r.End.Node)
	if root == nil {
		return ""
	}

	var b strings.Builder
	in := false
	WalkText(root, func(t *html.Node) bool {
		switch t {
		case r.Start.Node:
			in = true
			b.WriteString(substr(t.Data, r.Start.Offset, utf8.RuneCountInString(t.Data)))
		case r.End.Node:
			b.WriteString(substr(t.Data, 0, r.End.Offset))
			return false
		default:
			if in {
				b.WriteString(t.Data)
			}
		}
		return true
	})
	return b.String()
}

// SurroundContents encloses the range's contents in wrapper, in place.
// It succeeds when the range lies inside a single text node or spans a run
// of siblings under one parent; otherwise it returns ErrCrossBoundary and
// leaves the tree untouched.
func (r Range) SurroundContents(wrapper *html.Node) error {
	if r.Start.Node == nil || r.End.Node == nil {
		return errors.New("range has no boundary points")
	}

	if r.Start.Node == r.End.Node {
		node := r.Start.Node
		parent := node.Parent
		if parent == nil {
			return errors.New("range boundary has no parent")
		}
		// Split off the tail first so the start offset stays valid.
		splitText(node, r.End.Offset)
		mid := splitText(node, r.Start.Offset)
		parent.InsertBefore(wrapper, mid)
		parent.RemoveChild(mid)
		wrapper.AppendChild(mid)
		return nil
	}

	if r.Start.Node.Parent != r.End.Node.Parent {
		return ErrCrossBoundary
	}

	parent := r.Start.Node.Parent
	after := splitText(r.End.Node, r.End.Offset)
	first := splitText(r.Start.Node, r.Start.Offset)

	parent.InsertBefore(wrapper, first)
	for c := first; c != nil && c != after; {
		next := c.NextSibling
		parent.RemoveChild(c)
		wrapper.AppendChild(c)
		c = next
	}
	return nil
}

// ExtractInto removes the range's contents from the tree and re-inserts them
// inside wrapper at the position they were removed from. Elements partially
// covered by the range are split, so the wrapper ends up directly containing
// the selected text and inline markup, equivalent to what SurroundContents
// would have produced.
func (r Range) ExtractInto(wrapper *html.Node) error {
	if r.Start.Node == nil || r.End.Node == nil {
		return errors.New("range has no boundary points")
	}

	ca := CommonAncestor(r.Start.Node, r.End.Node)
	if ca == nil {
		return errors.New("range boundaries are in different trees")
	}
	if ca.Type == html.TextNode {
		ca = ca.Parent
	}

	// Reduce both boundaries to whole-node granularity. A boundary that
	// falls at the very end of its text node has no tail to split off, so
	// it advances to the next node in document order instead.
	endBoundary := splitText(r.End.Node, r.End.Offset)
	if endBoundary == nil {
		endBoundary = nextSkippingChildren(r.End.Node, ca)
	}
	first := splitText(r.Start.Node, r.Start.Offset)
	if first == nil {
		first = nextSkippingChildren(r.Start.Node, ca)
	}
	if first == nil || first == endBoundary {
		return errors.New("range covers no content")
	}

	// Hoist both boundaries to direct children of the common ancestor,
	// splitting partially covered ancestors along the way.
	startTop := splitBefore(first, ca)
	var endTop *html.Node
	if endBoundary != nil && Contains(ca, endBoundary) {
		endTop = splitBefore(endBoundary, ca)
	}

	for c := startTop; c != nil && c != endTop; {
		next := c.NextSibling
		ca.RemoveChild(c)
		wrapper.AppendChild(c)
		c = next
	}

	if endTop != nil {
		ca.InsertBefore(wrapper, endTop)
	} else {
		ca.AppendChild(wrapper)
	}
	return nil
}

// splitBefore restructures the tree so that node becomes the first node of a
// subtree hanging directly under ancestor, cloning each partially covered
// ancestor element into a following sibling. Returns the child of ancestor
// at which the split content now starts.
func splitBefore(node, ancestor *html.Node) *html.Node {
	n := node
	for n.Parent != ancestor {
		p := n.Parent
		clone := shallowClone(p)
		for sib := n; sib != nil; {
			next := sib.NextSibling
			p.RemoveChild(sib)
			clone.AppendChild(sib)
			sib = next
		}
		insertAfter(p.Parent, clone, p)
		n = clone
	}
	return n
}

// splitText splits a text node at the given code point offset and returns
// the node that starts at that offset: the node itself for offset zero, the
// newly created tail for an interior offset, or the next sibling (possibly
// nil) when the offset is at or past the end of the node's data.
func splitText(n *html.Node, offset int) *html.Node {
	if offset <= 0 {
		return n
	}
	runes := []rune(n.Data)
	if offset >= len(runes) {
		return n.NextSibling
	}
	tail := NewText(string(runes[offset:]))
	n.Data = string(runes[:offset])
	insertAfter(n.Parent, tail, n)
	return tail
}

// substr slices s by code point indices, clamping to the valid range.
func substr(s string, start, end int) string {
	runes := []rune(s)
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}
