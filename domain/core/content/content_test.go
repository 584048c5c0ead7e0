package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Confessions", want: "confessions"},
		{in: "Book I", want: "book-i"},
		{in: "Chapter 1", want: "chapter-1"},
		{in: "  The City of God  ", want: "the-city-of-god"},
		{in: "St. Augustine's (Retractions)", want: "st-augustine-s-retractions"},
		{in: "---", want: ""},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slug(tt.in), tt.in)
	}
}

func TestChapterID(t *testing.T) {
	assert.Equal(t, "confessions-book-i-chapter-1", ChapterID("Confessions", "Book I", "Chapter 1"))

	// An untitled part collapses out of the id rather than leaving a
	// double hyphen.
	assert.Equal(t, "soliloquies-chapter-2", ChapterID("Soliloquies", "", "Chapter 2"))
}

func TestInjectFootnoteLinks(t *testing.T) {
	in := `<p>So spake he.<sup class="footnote-ref" data-note-id="3">3</sup> And more.</p>`
	out := InjectFootnoteLinks(in)

	assert.Contains(t, out, `<a href="#footnote-3" id="fnref-3" class="footnote-link" data-footnote-id="3">3</a>`)
	assert.NotContains(t, out, "footnote-ref")

	// Markup without markers passes through untouched.
	plain := `<p>No notes here.</p>`
	assert.Equal(t, plain, InjectFootnoteLinks(plain))
	assert.Equal(t, "", InjectFootnoteLinks(""))
}

func TestLibraryValidate(t *testing.T) {
	lib := &Library{}
	assert.Error(t, lib.Validate())

	lib = &Library{Works: []Work{{WorkTitle: " "}}}
	assert.Error(t, lib.Validate())

	lib = &Library{Works: []Work{{
		WorkTitle: "Confessions",
		Parts: []Part{{
			PartTitle: "Book I",
			Chapters:  []Chapter{{ChapterTitle: ""}},
		}},
	}}}
	assert.Error(t, lib.Validate())

	lib = &Library{Works: []Work{{
		WorkTitle: "Confessions",
		Parts: []Part{{
			PartTitle: "Book I",
			Chapters:  []Chapter{{ChapterTitle: "Chapter 1", ContentHTML: "<p>x</p>"}},
		}},
	}}}
	require.NoError(t, lib.Validate())
	// Optional collections are defaulted, never nil.
	assert.NotNil(t, lib.Works[0].Parts[0].Chapters[0].Footnotes)
}

func TestFindChapter(t *testing.T) {
	lib := &Library{Works: []Work{{
		WorkTitle: "Confessions",
		Parts: []Part{{
			PartTitle: "Book I",
			Chapters: []Chapter{
				{ChapterTitle: "Chapter 1", ContentHTML: "<p>one</p>"},
				{ChapterTitle: "Chapter 2", ContentHTML: "<p>two</p>"},
			},
		}},
	}}}
	require.NoError(t, lib.Validate())

	workTitle, partTitle, chapter := lib.FindChapter("confessions-book-i-chapter-2")
	require.NotNil(t, chapter)
	assert.Equal(t, "Confessions", workTitle)
	assert.Equal(t, "Book I", partTitle)
	assert.Equal(t, "Chapter 2", chapter.ChapterTitle)

	_, _, missing := lib.FindChapter("no-such-chapter")
	assert.Nil(t, missing)
}
