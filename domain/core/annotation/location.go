package annotation

import (
	"strings"

	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// Location places an annotation within the corpus by human-readable titles.
// Titles are used for filtering and display; anchor reconstruction relies on
// the container id and offsets, not on these.
type Location struct {
	WorkTitle    string
	PartTitle    string
	ChapterTitle string
}

// NewLocation validates and normalizes a location. The part title is
// optional: single-part works carry none.
func NewLocation(workTitle, partTitle, chapterTitle string) (Location, error) {
	loc := Location{
		WorkTitle:    strings.TrimSpace(workTitle),
		PartTitle:    strings.TrimSpace(partTitle),
		ChapterTitle: strings.TrimSpace(chapterTitle),
	}
	if loc.WorkTitle == "" {
		return Location{}, pkgerrors.NewValidationError("workTitle cannot be empty")
	}
	if loc.ChapterTitle == "" {
		return Location{}, pkgerrors.NewValidationError("chapterTitle cannot be empty")
	}
	return loc, nil
}

// Matches reports whether the location satisfies an optional work/chapter
// filter; empty filter fields match everything.
func (l Location) Matches(workTitle, chapterTitle string) bool {
	if workTitle != "" && l.WorkTitle != workTitle {
		return false
	}
	if chapterTitle != "" && l.ChapterTitle != chapterTitle {
		return false
	}
	return true
}
