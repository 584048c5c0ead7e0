// Package content defines the typed model of the reading corpus: works,
// parts, chapters, and footnotes, together with the deterministic element-id
// derivation the anchoring engine depends on.
package content

import (
	"strings"

	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// Library is the root of the corpus as loaded from the content pipeline's
// JSON output.
type Library struct {
	Works []Work `json:"works"`
}

// Work is one multi-part literary work.
type Work struct {
	WorkTitle string `json:"work_title"`
	Parts     []Part `json:"parts"`
}

// Part groups a run of chapters. Single-part works still carry one part,
// possibly untitled.
type Part struct {
	PartTitle string    `json:"part_title"`
	Chapters  []Chapter `json:"chapters"`
}

// Chapter carries the rendered markup the anchoring engine works against.
type Chapter struct {
	ChapterTitle string     `json:"chapter_title"`
	ContentHTML  string     `json:"content_html"`
	Footnotes    []Footnote `json:"footnotes"`
}

// Footnote is an endnote referenced from chapter markup by numeric id.
type Footnote struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Validate checks the library's structural invariants and defaults optional
// collections, so downstream code never sees nil slices.
func (l *Library) Validate() error {
	if len(l.Works) == 0 {
		return pkgerrors.NewValidationError("library has no works")
	}
	for wi := range l.Works {
		w := &l.Works[wi]
		if strings.TrimSpace(w.WorkTitle) == "" {
			return pkgerrors.NewValidationError("work has no title")
		}
		if w.Parts == nil {
			w.Parts = []Part{}
		}
		for pi := range w.Parts {
			p := &w.Parts[pi]
			if p.Chapters == nil {
				p.Chapters = []Chapter{}
			}
			for ci := range p.Chapters {
				c := &p.Chapters[ci]
				if strings.TrimSpace(c.ChapterTitle) == "" {
					return pkgerrors.NewValidationError("chapter has no title")
				}
				if c.Footnotes == nil {
					c.Footnotes = []Footnote{}
				}
			}
		}
	}
	return nil
}

// FindChapter locates a chapter by its container id. Returns the enclosing
// work and part titles alongside the chapter, or nil when no chapter slugs
// to the id.
func (l *Library) FindChapter(containerID string) (workTitle, partTitle string, chapter *Chapter) {
	for wi := range l.Works {
		w := &l.Works[wi]
		for pi := range w.Parts {
			p := &w.Parts[pi]
			for ci := range p.Chapters {
				c := &p.Chapters[ci]
				if ChapterID(w.WorkTitle, p.PartTitle, c.ChapterTitle) == containerID {
					return w.WorkTitle, p.PartTitle, c
				}
			}
		}
	}
	return "", "", nil
}

// ChapterID derives the stable container element id for a chapter. The
// derivation is a contract with stored anchors: changing it orphans every
// existing elementId.
func ChapterID(workTitle, partTitle, chapterTitle string) string {
	return Slug(workTitle + "-" + partTitle + "-" + chapterTitle)
}
