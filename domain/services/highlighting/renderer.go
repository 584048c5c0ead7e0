// Package highlighting paints stored highlights into a chapter's markup and
// removes them again without disturbing the surrounding text.
package highlighting

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	"github.com/kyle-mirich/church-fathers-reader/domain/services/anchoring"
	"github.com/kyle-mirich/church-fathers-reader/pkg/dom"
)

const (
	markerAttr      = "data-highlight-id"
	markerColorAttr = "data-highlight-color"
	markerClass     = "reader-highlight"
)

// Renderer wraps highlighted ranges in marker elements. Rendering is
// best-effort: a highlight whose anchor no longer resolves is skipped and
// logged, never fatal, so one stale highlight cannot take down a chapter.
type Renderer struct {
	logger *zap.Logger
}

func NewRenderer(logger *zap.Logger) *Renderer {
	return &Renderer{logger: logger}
}

// Apply paints a single highlight into container and reports whether the
// marker was placed. Applying the same highlight twice is a no-op: an
// existing marker with the highlight's id short-circuits the call, so the
// text is never double-wrapped.
func (r *Renderer) Apply(container *html.Node, h *annotation.Highlight) bool {
	if FindMarker(container, h.ID()) != nil {
		return true
	}

	anc := h.Anchor()
	rng := anchoring.ResolveRange(container, anc)
	if rng == nil {
		r.logger.Warn("highlight anchor no longer resolves, skipping",
			zap.String("highlightId", h.ID()),
			zap.String("containerId", anc.ContainerID),
			zap.Int("startOffset", anc.StartOffset),
		)
		return false
	}

	marker := r.newMarker(h)
	if err := rng.SurroundContents(marker); err != nil {
		// The range crosses element boundaries. Extract the covered
		// content into the marker instead, the way browsers fall back
		// from surroundContents to extractContents.
		if err := rng.ExtractInto(marker); err != nil {
			r.logger.Warn("could not wrap highlight range",
				zap.String("highlightId", h.ID()),
				zap.Error(err),
			)
			return false
		}
	}
	return true
}

// ApplyAll paints every highlight in order and returns the number placed.
func (r *Renderer) ApplyAll(container *html.Node, highlights []*annotation.Highlight) int {
	applied := 0
	for _, h := range highlights {
		if r.Apply(container, h) {
			applied++
		}
	}
	return applied
}

// Remove strips a highlight's markers from container, splicing each
// marker's children back into its parent and merging the text nodes the
// wrapping had split. The surrounding text is byte-identical to what it was
// before the highlight was applied.
func (r *Renderer) Remove(container *html.Node, highlightID string) bool {
	removed := false
	for {
		marker := FindMarker(container, highlightID)
		if marker == nil {
			break
		}
		parent := marker.Parent
		dom.Unwrap(marker)
		if parent != nil {
			dom.Normalize(parent)
		}
		removed = true
	}
	return removed
}

// FindMarker returns the marker element carrying the highlight id, or nil.
func FindMarker(container *html.Node, highlightID string) *html.Node {
	return dom.FindElement(container, func(n *html.Node) bool {
		return dom.GetAttr(n, markerAttr) == highlightID
	})
}

func (r *Renderer) newMarker(h *annotation.Highlight) *html.Node {
	marker := dom.NewElement("mark")
	dom.SetAttr(marker, markerAttr, h.ID())
	dom.SetAttr(marker, markerColorAttr, string(h.Color()))
	dom.SetAttr(marker, "class", markerClass+" "+markerClass+"-"+h.Color().ClassSuffix())
	dom.SetAttr(marker, "style", "background-color: "+h.Color().CSS())
	return marker
}
