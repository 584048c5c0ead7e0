// Package dom provides the text-layout layer the anchoring engine works
// against: parsing chapter markup into a node tree, walking visible text in
// document order, and the range surgery needed to decorate a span in place.
//
// All offsets handled by this package are measured in Unicode code points of
// the tree's visible text content. Markup never contributes to offsets; the
// same tokenization is used when capturing a selection and when restoring
// one, which is what keeps stored anchors resolvable.
package dom

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	return html.Parse(r)
}

// ParseFragment parses a chapter's content_html fragment and returns a
// synthetic div container holding the parsed nodes. The container itself
// carries no id; callers attach the chapter's slug id before anchoring
// against it.
func ParseFragment(fragment string) (*html.Node, error) {
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, err
	}

	container := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, nil
}

// Render serializes a node back to HTML.
func Render(w io.Writer, n *html.Node) error {
	return html.Render(w, n)
}

// RenderChildren serializes only the children of n, which undoes the
// synthetic container added by ParseFragment.
func RenderChildren(w io.Writer, n *html.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(w, c); err != nil {
			return err
		}
	}
	return nil
}

// WalkText visits every text node under root in document order. The visit
// function returns false to stop the walk; WalkText reports whether the walk
// ran to completion.
func WalkText(root *html.Node, visit func(*html.Node) bool) bool {
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			if !visit(c) {
				return false
			}
			continue
		}
		if !WalkText(c, visit) {
			return false
		}
	}
	return true
}

// TextContent returns the concatenation of all text nodes under n in
// document order.
func TextContent(n *html.Node) string {
	var b strings.Builder
	if n.Type == html.TextNode {
		return n.Data
	}
	WalkText(n, func(t *html.Node) bool {
		b.WriteString(t.Data)
		return true
	})
	return b.String()
}

// TextLength returns the total code point count of the visible text under n.
func TextLength(n *html.Node) int {
	total := 0
	if n.Type == html.TextNode {
		return utf8.RuneCountInString(n.Data)
	}
	WalkText(n, func(t *html.Node) bool {
		total += utf8.RuneCountInString(t.Data)
		return true
	})
	return total
}

// Contains reports whether n is ancestor or a descendant of ancestor.
func Contains(ancestor, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == ancestor {
			return true
		}
	}
	return false
}

// CommonAncestor returns the lowest node containing both a and b, or nil if
// the nodes belong to different trees.
func CommonAncestor(a, b *html.Node) *html.Node {
	seen := make(map[*html.Node]bool)
	for n := a; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := b; n != nil; n = n.Parent {
		if seen[n] {
			return n
		}
	}
	return nil
}

// ElementByID returns the descendant element of root carrying the given id,
// or nil.
func ElementByID(root *html.Node, id string) *html.Node {
	if root.Type == html.ElementNode && GetAttr(root, "id") == id {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := ElementByID(c, id); found != nil {
			return found
		}
	}
	return nil
}

// FindElement returns the first descendant element (document order) for
// which match returns true, or nil.
func FindElement(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root.Type == html.ElementNode && match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, match); found != nil {
			return found
		}
	}
	return nil
}

// GetAttr returns the value of the named attribute, or "".
func GetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces the named attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// ClosestWithID walks upward from n (inclusive) and returns the nearest
// element carrying a non-empty id attribute, or nil when no ancestor has one.
func ClosestWithID(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if n.Type == html.ElementNode && GetAttr(n, "id") != "" {
			return n
		}
	}
	return nil
}

// NewElement creates a detached element node.
func NewElement(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// insertAfter places newChild into parent immediately after ref.
func insertAfter(parent, newChild, ref *html.Node) {
	if ref.NextSibling != nil {
		parent.InsertBefore(newChild, ref.NextSibling)
	} else {
		parent.AppendChild(newChild)
	}
}

// shallowClone copies an element node without its children.
func shallowClone(n *html.Node) *html.Node {
	clone := &html.Node{
		Type:     n.Type,
		Data:     n.Data,
		DataAtom: n.DataAtom,
	}
	clone.Attr = append(clone.Attr, n.Attr...)
	return clone
}

// nextSkippingChildren returns the node after n in document order without
// descending into n, stopping at (and never escaping) root.
func nextSkippingChildren(n, root *html.Node) *html.Node {
	for ; n != nil && n != root; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// Unwrap replaces n with its own children.
func Unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for n.FirstChild != nil {
		c := n.FirstChild
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
	}
	parent.RemoveChild(n)
}

// Normalize merges adjacent text nodes and drops empty ones in the whole
// subtree, restoring the text-node structure that existed before a wrapper
// was removed.
func Normalize(n *html.Node) {
	c := n.FirstChild
	for c != nil {
		next := c.NextSibling
		if c.Type == html.TextNode {
			if c.Data == "" {
				n.RemoveChild(c)
				c = next
				continue
			}
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				drop := next
				next = next.NextSibling
				n.RemoveChild(drop)
			}
		} else {
			Normalize(c)
		}
		c = next
	}
}
