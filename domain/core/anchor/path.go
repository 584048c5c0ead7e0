package anchor

import (
	"fmt"
	"strconv"
	"strings"
)

// PathSegment is one step of a structural path: an element tag and its
// 1-based occurrence index among same-tag siblings.
type PathSegment struct {
	Tag   string
	Index int
}

// StructuralPath is a tag-indexed path from the document root to the
// selection's common ancestor, root first. It serializes to the compact
// slash form the companion endpoints store ("/body/div/p[2]").
//
// The path is a secondary, position-independent hint only; within one
// rendering the offsets are authoritative.
type StructuralPath []PathSegment

// String renders the path in its wire form.
func (p StructuralPath) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('/')
		b.WriteString(seg.Tag)
		if seg.Index > 1 {
			fmt.Fprintf(&b, "[%d]", seg.Index)
		}
	}
	return b.String()
}

// ParsePath parses the wire form back into segments. Malformed input yields
// an error rather than a partial path.
func ParsePath(s string) (StructuralPath, error) {
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "/") {
		return nil, fmt.Errorf("structural path must start with '/': %q", s)
	}

	var path StructuralPath
	for _, part := range strings.Split(s[1:], "/") {
		if part == "" {
			return nil, fmt.Errorf("structural path has empty segment: %q", s)
		}
		seg := PathSegment{Tag: part, Index: 1}
		if i := strings.IndexByte(part, '['); i >= 0 {
			if !strings.HasSuffix(part, "]") {
				return nil, fmt.Errorf("unterminated index in path segment: %q", part)
			}
			idx, err := strconv.Atoi(part[i+1 : len(part)-1])
			if err != nil || idx < 1 {
				return nil, fmt.Errorf("invalid index in path segment: %q", part)
			}
			seg.Tag = part[:i]
			seg.Index = idx
		}
		if seg.Tag == "" {
			return nil, fmt.Errorf("structural path segment has no tag: %q", part)
		}
		path = append(path, seg)
	}
	return path, nil
}

// MarshalJSON writes the path as its wire string.
func (p StructuralPath) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON reads the path from its wire string.
func (p *StructuralPath) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("structural path must be a string: %w", err)
	}
	parsed, err := ParsePath(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
