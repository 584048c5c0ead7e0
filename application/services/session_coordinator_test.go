package services

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	"github.com/kyle-mirich/church-fathers-reader/domain/services/highlighting"
	"github.com/kyle-mirich/church-fathers-reader/infrastructure/persistence/memory"
	"github.com/kyle-mirich/church-fathers-reader/pkg/dom"
)

const sessionChapterHTML = `<p>Thou hast made us for Thyself, and our heart is restless until it rests in Thee.</p>`

func newSession(t *testing.T) (*SessionCoordinator, *fixture) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	f := newFixture(t)
	renderer := highlighting.NewRenderer(logger)
	c := NewSessionCoordinator("user-1", f.noteSvc, f.hlSvc, renderer, logger, WithSettleDelay(0))
	return c, f
}

func sessionChapter(t *testing.T) (*html.Node, annotation.Location) {
	t.Helper()
	container, err := dom.ParseFragment(sessionChapterHTML)
	require.NoError(t, err)
	dom.SetAttr(container, "id", "chapter-confessions-book-i-chapter-1")
	loc, err := annotation.NewLocation("Confessions", "Book I", "Chapter 1")
	require.NoError(t, err)
	return container, loc
}

func selectIn(t *testing.T, container *html.Node, needle string) dom.Selection {
	t.Helper()
	var pos dom.Position
	dom.WalkText(container, func(n *html.Node) bool {
		if i := strings.Index(n.Data, needle); i >= 0 {
			pos = dom.Position{Node: n, Offset: utf8.RuneCountInString(n.Data[:i])}
			return false
		}
		return true
	})
	require.NotNil(t, pos.Node, "text %q not found", needle)
	end := pos
	end.Offset += utf8.RuneCountInString(needle)
	return dom.Selection{Start: pos, End: end}
}

func TestSessionSelectionLifecycle(t *testing.T) {
	ctx := context.Background()
	c, _ := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.PendingAnchor())

	c.SelectionChanged(selectIn(t, container, "our heart is restless"))
	assert.Equal(t, StateSelectionActive, c.State())
	require.NotNil(t, c.PendingAnchor())
	assert.Equal(t, "our heart is restless", c.PendingAnchor().Text)

	c.ClearSelection()
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.PendingAnchor())
}

func TestSessionCollapsedSelectionGoesIdle(t *testing.T) {
	ctx := context.Background()
	c, _ := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	c.SelectionChanged(selectIn(t, container, "restless"))
	require.Equal(t, StateSelectionActive, c.State())

	collapsed := selectIn(t, container, "restless")
	collapsed.End = collapsed.Start
	c.SelectionChanged(collapsed)
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.PendingAnchor())
}

func TestSessionSaveHighlightRendersAfterWrite(t *testing.T) {
	ctx := context.Background()
	c, f := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	c.SelectionChanged(selectIn(t, container, "rests in Thee"))
	h, err := c.SaveHighlight(ctx, "BLUE")
	require.NoError(t, err)

	// Persisted and painted, and the session is idle again.
	stored, err := f.hlSvc.GetHighlight(ctx, "user-1", h.ID())
	require.NoError(t, err)
	assert.Equal(t, annotation.ColorBlue, stored.Color())

	marker := highlighting.FindMarker(container, h.ID())
	require.NotNil(t, marker)
	assert.Equal(t, "rests in Thee", dom.TextContent(marker))
	assert.Equal(t, StateIdle, c.State())
}

func TestSessionSaveHighlightWithoutSelection(t *testing.T) {
	ctx := context.Background()
	c, _ := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	_, err := c.SaveHighlight(ctx, "YELLOW")
	assert.Error(t, err)
}

// hookedHighlightRepo lets a test run a callback at the moment the store
// write happens, to interleave session events with an in-flight save.
type hookedHighlightRepo struct {
	ports.HighlightRepository
	onCreate func()
}

func (r *hookedHighlightRepo) Create(ctx context.Context, h *annotation.Highlight) error {
	if r.onCreate != nil {
		r.onCreate()
	}
	return r.HighlightRepository.Create(ctx, h)
}

func TestSessionStaleScopeDoesNotPaint(t *testing.T) {
	// A save whose scope was invalidated while the write was in flight
	// must still persist the highlight but must not paint it.
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	notes := memory.NewNoteRepository()
	hooked := &hookedHighlightRepo{HighlightRepository: memory.NewHighlightRepository()}
	noteSvc := NewNoteService(notes, hooked, logger)
	hlSvc := NewHighlightService(hooked, notes, logger)
	c := NewSessionCoordinator("user-1", noteSvc, hlSvc, highlighting.NewRenderer(logger), logger, WithSettleDelay(0))

	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))
	c.SelectionChanged(selectIn(t, container, "Thou hast made us"))

	// The user clears the selection just as the write reaches the store.
	hooked.onCreate = c.ClearSelection

	h, err := c.SaveHighlight(ctx, "YELLOW")
	require.NoError(t, err)

	stored, err := hlSvc.GetHighlight(ctx, "user-1", h.ID())
	require.NoError(t, err)
	assert.Equal(t, h.ID(), stored.ID())
	assert.Nil(t, highlighting.FindMarker(container, h.ID()))
}

func TestSessionNoteComposition(t *testing.T) {
	ctx := context.Background()
	c, f := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	t.Run("compose requires a selection", func(t *testing.T) {
		assert.Error(t, c.BeginNote())
	})

	c.SelectionChanged(selectIn(t, container, "our heart is restless"))
	require.NoError(t, c.BeginNote())
	assert.Equal(t, StateComposingNote, c.State())

	t.Run("selection changes are ignored while composing", func(t *testing.T) {
		c.SelectionChanged(selectIn(t, container, "Thou hast"))
		assert.Equal(t, StateComposingNote, c.State())
		assert.Equal(t, "our heart is restless", c.PendingAnchor().Text)
	})

	note, err := c.SaveNote(ctx, CreateNoteInput{
		Content:  "The restless heart.",
		NoteType: "INSIGHT",
	})
	require.NoError(t, err)
	assert.Equal(t, StateIdle, c.State())

	stored, err := f.noteSvc.GetNote(ctx, "user-1", note.ID())
	require.NoError(t, err)
	assert.Equal(t, "Confessions", stored.Location().WorkTitle)
	assert.Equal(t, "Chapter 1", stored.Location().ChapterTitle)
	require.NotNil(t, stored.Anchor())
	assert.Equal(t, "our heart is restless", stored.Anchor().Text)
}

func TestSessionCancelNote(t *testing.T) {
	ctx := context.Background()
	c, _ := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	c.SelectionChanged(selectIn(t, container, "restless"))
	require.NoError(t, c.BeginNote())

	c.CancelNote()
	assert.Equal(t, StateSelectionActive, c.State())
	assert.NotNil(t, c.PendingAnchor())
}

func TestEnterChapterPaintsStoredHighlights(t *testing.T) {
	ctx := context.Background()
	c, _ := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	c.SelectionChanged(selectIn(t, container, "rests in Thee"))
	h, err := c.SaveHighlight(ctx, "GREEN")
	require.NoError(t, err)

	// A fresh rendering of the same chapter gets the highlight repainted.
	fresh, freshLoc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, fresh, freshLoc))

	marker := highlighting.FindMarker(fresh, h.ID())
	require.NotNil(t, marker)
	assert.Equal(t, "rests in Thee", dom.TextContent(marker))

	// And a chapter it does not belong to stays clean.
	other, err := dom.ParseFragment(`<p>Another chapter, other words.</p>`)
	require.NoError(t, err)
	dom.SetAttr(other, "id", "chapter-confessions-book-i-chapter-2")
	otherLoc, err := annotation.NewLocation("Confessions", "Book I", "Chapter 2")
	require.NoError(t, err)
	require.NoError(t, c.EnterChapter(ctx, other, otherLoc))
	assert.Nil(t, highlighting.FindMarker(other, h.ID()))
}

func TestEnterChapterResetsSelection(t *testing.T) {
	ctx := context.Background()
	c, _ := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	c.SelectionChanged(selectIn(t, container, "restless"))
	require.Equal(t, StateSelectionActive, c.State())

	fresh, freshLoc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, fresh, freshLoc))
	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.PendingAnchor())
}

func TestSessionRemoveHighlight(t *testing.T) {
	ctx := context.Background()
	c, f := newSession(t)
	container, loc := sessionChapter(t)
	require.NoError(t, c.EnterChapter(ctx, container, loc))

	c.SelectionChanged(selectIn(t, container, "made us for Thyself"))
	h, err := c.SaveHighlight(ctx, "PINK")
	require.NoError(t, err)
	require.NotNil(t, highlighting.FindMarker(container, h.ID()))

	require.NoError(t, c.RemoveHighlight(ctx, h.ID()))
	assert.Nil(t, highlighting.FindMarker(container, h.ID()))
	_, err = f.hlSvc.GetHighlight(ctx, "user-1", h.ID())
	assert.Error(t, err)
}
