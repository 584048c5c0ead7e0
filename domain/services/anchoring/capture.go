package anchoring

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/pkg/dom"
)

// Capture reduces a live selection to a durable anchor, or returns nil when
// the selection carries nothing worth anchoring (collapsed, or only
// whitespace).
//
// The anchoring container is the nearest ancestor element of the selection
// that carries an id attribute. When no such ancestor exists the anchor is
// captured in degraded mode against the document root: offsets are still
// recorded but ContainerID stays empty, and such anchors survive within a
// page load only.
//
// Leading and trailing whitespace is excluded from the anchor on both
// sides, so the recorded offsets always delimit exactly the anchor's Text.
func Capture(root *html.Node, sel dom.Selection) (*anchor.Anchor, error) {
	if sel.Collapsed() {
		return nil, nil
	}
	raw := sel.Text()
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, nil
	}

	ancestor := sel.CommonAncestor()
	if ancestor == nil {
		return nil, nil
	}
	if ancestor.Type == html.TextNode {
		ancestor = ancestor.Parent
	}

	container := dom.ClosestWithID(ancestor)
	containerID := ""
	if container != nil {
		containerID = dom.GetAttr(container, "id")
	} else {
		container = root
	}

	start, err := ComputeOffset(container, sel.Start.Node, sel.Start.Offset)
	if err != nil {
		return nil, err
	}
	end, err := ComputeOffset(container, sel.End.Node, sel.End.Offset)
	if err != nil {
		return nil, err
	}

	// Shrink the boundaries past whatever TrimSpace removed, so that
	// resolving the anchor yields Text exactly.
	start += leadingSpace(raw)
	end -= trailingSpace(raw)
	if start >= end {
		return nil, nil
	}

	return &anchor.Anchor{
		Text:        text,
		StartOffset: start,
		EndOffset:   end,
		ContainerID: containerID,
		Path:        PathTo(ancestor),
	}, nil
}

// PathTo records the element chain from the document root down to n as a
// structural path. Each step carries the element's tag and its 1-based
// position among preceding siblings of the same tag, which is enough to
// re-locate the element across sessions when ids are absent.
func PathTo(n *html.Node) anchor.StructuralPath {
	var chain []*html.Node
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode {
			chain = append(chain, cur)
		}
	}

	path := make(anchor.StructuralPath, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		el := chain[i]
		index := 1
		for sib := el.PrevSibling; sib != nil; sib = sib.PrevSibling {
			if sib.Type == html.ElementNode && sib.Data == el.Data {
				index++
			}
		}
		path = append(path, anchor.PathSegment{Tag: el.Data, Index: index})
	}
	return path
}

func leadingSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			break
		}
		n++
	}
	return n
}

func trailingSpace(s string) int {
	runes := []rune(s)
	n := 0
	for i := len(runes) - 1; i >= 0; i-- {
		if !unicode.IsSpace(runes[i]) {
			break
		}
		n++
	}
	return n
}
