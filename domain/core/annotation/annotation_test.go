package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

func testLocation(t *testing.T) Location {
	t.Helper()
	loc, err := NewLocation("Confessions", "Book I", "Chapter 1")
	require.NoError(t, err)
	return loc
}

func testAnchor() *anchor.Anchor {
	return &anchor.Anchor{
		Text:        "restless",
		StartOffset: 44,
		EndOffset:   52,
		ContainerID: "confessions-book-i-chapter-1",
	}
}

func TestParseNoteType(t *testing.T) {
	tests := []struct {
		in      string
		want    NoteType
		wantErr bool
	}{
		{in: "", want: NoteTypeGeneral},
		{in: "insight", want: NoteTypeInsight},
		{in: "CROSS_REF", want: NoteTypeCrossRef},
		{in: "Prayer", want: NoteTypePrayer},
		{in: "rant", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseNoteType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseColorDefaultsToYellow(t *testing.T) {
	c, err := ParseColor("")
	require.NoError(t, err)
	assert.Equal(t, ColorYellow, c)

	c, err = ParseColor("green")
	require.NoError(t, err)
	assert.Equal(t, ColorGreen, c)

	_, err = ParseColor("mauve")
	assert.Error(t, err)
}

func TestNewNoteValidation(t *testing.T) {
	loc := testLocation(t)

	_, err := NewNote("", loc, "", "content", NoteTypeGeneral, nil, nil, false)
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewNote("user-1", loc, "", "   ", NoteTypeGeneral, nil, nil, false)
	assert.True(t, pkgerrors.IsValidation(err))

	bad := testAnchor()
	bad.EndOffset = bad.StartOffset
	_, err = NewNote("user-1", loc, "", "content", NoteTypeGeneral, bad, nil, false)
	assert.True(t, pkgerrors.IsValidation(err))

	n, err := NewNote("user-1", loc, "  Titled  ", "content", "", testAnchor(), []string{"grace"}, true)
	require.NoError(t, err)
	assert.Equal(t, NoteTypeGeneral, n.Type())
	assert.Equal(t, "Titled", n.Title())
	assert.True(t, n.IsPublic())
	assert.NotEmpty(t, n.ID())
}

func TestNoteAnchorIsCopied(t *testing.T) {
	anc := testAnchor()
	n, err := NewNote("user-1", testLocation(t), "", "content", NoteTypeGeneral, anc, nil, false)
	require.NoError(t, err)

	anc.Text = "mutated"
	assert.Equal(t, "restless", n.Anchor().Text)

	// The accessor hands out a copy as well.
	n.Anchor().Text = "mutated again"
	assert.Equal(t, "restless", n.Anchor().Text)
}

func TestNoteUpdateContentTouchesTimestamp(t *testing.T) {
	n, err := NewNote("user-1", testLocation(t), "", "content", NoteTypeGeneral, nil, nil, false)
	require.NoError(t, err)

	created := n.UpdatedAt()
	require.NoError(t, n.UpdateContent("revised"))
	assert.Equal(t, "revised", n.Content())
	assert.False(t, n.UpdatedAt().Before(created))

	assert.Error(t, n.UpdateContent("  "))
}

func TestNewHighlightValidation(t *testing.T) {
	loc := testLocation(t)

	_, err := NewHighlight("", loc, *testAnchor(), ColorYellow, "")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewHighlight("user-1", loc, anchor.Anchor{}, ColorYellow, "")
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = NewHighlight("user-1", loc, *testAnchor(), "CHARTREUSE", "")
	assert.True(t, pkgerrors.IsValidation(err))

	h, err := NewHighlight("user-1", loc, *testAnchor(), "", "note-1")
	require.NoError(t, err)
	assert.Equal(t, ColorYellow, h.Color())
	assert.Equal(t, "note-1", h.NoteID())
}

func TestHighlightNoteReferenceLifecycle(t *testing.T) {
	h, err := NewHighlight("user-1", testLocation(t), *testAnchor(), ColorBlue, "")
	require.NoError(t, err)

	h.SetNoteID("note-9")
	assert.Equal(t, "note-9", h.NoteID())

	h.ClearNoteReference()
	assert.Empty(t, h.NoteID())

	require.NoError(t, h.SetColor(ColorPink))
	assert.Equal(t, ColorPink, h.Color())
	assert.Error(t, h.SetColor("ECRU"))
}

func TestNoteRecordRoundTrip(t *testing.T) {
	n, err := NewNote("user-1", testLocation(t), "Title", "content", NoteTypeInsight, testAnchor(), []string{"sin", "grace"}, true)
	require.NoError(t, err)

	got, err := NoteFromRecord(n.Record())
	require.NoError(t, err)
	assert.Equal(t, n.ID(), got.ID())
	assert.Equal(t, n.Content(), got.Content())
	assert.Equal(t, n.Tags(), got.Tags())
	require.NotNil(t, got.Anchor())
	assert.Equal(t, *n.Anchor(), *got.Anchor())
	assert.True(t, n.CreatedAt().Equal(got.CreatedAt()))
}

func TestHighlightRecordRoundTrip(t *testing.T) {
	h, err := NewHighlight("user-1", testLocation(t), *testAnchor(), ColorGreen, "note-1")
	require.NoError(t, err)

	got, err := HighlightFromRecord(h.Record())
	require.NoError(t, err)
	assert.Equal(t, h.ID(), got.ID())
	assert.Equal(t, h.Anchor(), got.Anchor())
	assert.Equal(t, ColorGreen, got.Color())
	assert.Equal(t, "note-1", got.NoteID())
}

func TestLocationMatches(t *testing.T) {
	loc := testLocation(t)
	assert.True(t, loc.Matches("", ""))
	assert.True(t, loc.Matches("Confessions", ""))
	assert.True(t, loc.Matches("Confessions", "Chapter 1"))
	assert.False(t, loc.Matches("City of God", ""))
	assert.False(t, loc.Matches("Confessions", "Chapter 2"))
}
