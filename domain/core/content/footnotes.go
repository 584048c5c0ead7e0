package content

import (
	"fmt"
	"regexp"
)

// footnoteRefPattern matches the inert footnote markers emitted by the
// content pipeline.
var footnoteRefPattern = regexp.MustCompile(`<sup class="footnote-ref" data-note-id="(\d+)">(\d+)</sup>`)

// InjectFootnoteLinks rewrites the pipeline's footnote markers into anchor
// elements the reader can attach tooltip behavior to. Markup without
// markers passes through unchanged.
//
// The rewritten links carry no visible text nodes beyond the footnote
// number, so they do not disturb character offsets of anchors captured
// before the rewrite only when the marker digits are identical; the reader
// therefore always anchors against the rewritten markup, never the raw
// pipeline output.
func InjectFootnoteLinks(contentHTML string) string {
	if contentHTML == "" {
		return ""
	}
	return footnoteRefPattern.ReplaceAllStringFunc(contentHTML, func(m string) string {
		sub := footnoteRefPattern.FindStringSubmatch(m)
		id := sub[1]
		return fmt.Sprintf(
			`<a href="#footnote-%s" id="fnref-%s" class="footnote-link" data-footnote-id="%s">%s</a>`,
			id, id, id, sub[2],
		)
	})
}
