package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const libraryJSON = `{
  "works": [
    {
      "work_title": "Confessions",
      "parts": [
        {
          "part_title": "Book I",
          "chapters": [
            {
              "chapter_title": "Chapter 1",
              "content_html": "<p>Great art Thou, O Lord.<sup class=\"footnote-ref\" data-note-id=\"1\">1</sup></p>",
              "footnotes": [
                {"id": 1, "text": "Psalm 145:3."}
              ]
            }
          ]
        }
      ]
    }
  ]
}`

func writeLibrary(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "library.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadLibrary(t *testing.T) {
	path := writeLibrary(t, t.TempDir(), libraryJSON)

	lib, err := LoadLibrary(path)
	require.NoError(t, err)
	require.Len(t, lib.Works, 1)
	assert.Equal(t, "Confessions", lib.Works[0].WorkTitle)
	require.Len(t, lib.Works[0].Parts, 1)
	require.Len(t, lib.Works[0].Parts[0].Chapters, 1)
	assert.Len(t, lib.Works[0].Parts[0].Chapters[0].Footnotes, 1)
}

func TestLoadLibraryErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadLibrary(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeLibrary(t, dir, "{not json")
		_, err := LoadLibrary(path)
		assert.Error(t, err)
	})

	t.Run("missing work title", func(t *testing.T) {
		path := writeLibrary(t, dir, `{"works":[{"work_title":"","parts":[]}]}`)
		_, err := LoadLibrary(path)
		assert.Error(t, err)
	})
}

func TestProviderServesAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeLibrary(t, dir, libraryJSON)

	p, err := NewProvider(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	work, _, chapter := p.FindChapter("confessions-book-i-chapter-1")
	require.NotNil(t, chapter)
	assert.Equal(t, "Confessions", work)
	assert.Equal(t, "Chapter 1", chapter.ChapterTitle)

	// Swap the file and reload directly; the watcher goroutine calls the
	// same path on fsnotify events.
	updated := `{"works":[{"work_title":"City of God","parts":[{"part_title":"Book XIX","chapters":[{"chapter_title":"Chapter 13","content_html":"<p>Peace.</p>"}]}]}]}`
	writeLibrary(t, dir, updated)
	p.reload()

	_, _, gone := p.FindChapter("confessions-book-i-chapter-1")
	assert.Nil(t, gone)
	_, _, found := p.FindChapter("city-of-god-book-xix-chapter-13")
	assert.NotNil(t, found)
}

func TestProviderKeepsLibraryOnBadReload(t *testing.T) {
	dir := t.TempDir()
	path := writeLibrary(t, dir, libraryJSON)

	p, err := NewProvider(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer p.Close()

	writeLibrary(t, dir, "{broken")
	p.reload()

	_, _, chapter := p.FindChapter("confessions-book-i-chapter-1")
	assert.NotNil(t, chapter, "previous library must survive a bad reload")
}
