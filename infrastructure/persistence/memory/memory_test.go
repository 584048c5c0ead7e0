package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/anchor"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

func testLocation(t *testing.T, chapter string) annotation.Location {
	t.Helper()
	loc, err := annotation.NewLocation("Confessions", "Book I", chapter)
	require.NoError(t, err)
	return loc
}

func testAnchor() anchor.Anchor {
	return anchor.Anchor{
		Text:        "Great art Thou",
		StartOffset: 0,
		EndOffset:   14,
		ContainerID: "chapter-confessions-book-i-chapter-1",
	}
}

func newNote(t *testing.T, owner, chapter, content string) *annotation.Note {
	t.Helper()
	anc := testAnchor()
	note, err := annotation.NewNote(owner, testLocation(t, chapter), "", content, annotation.NoteTypeGeneral, &anc, nil, false)
	require.NoError(t, err)
	return note
}

func newHighlight(t *testing.T, owner, chapter string) *annotation.Highlight {
	t.Helper()
	h, err := annotation.NewHighlight(owner, testLocation(t, chapter), testAnchor(), annotation.ColorYellow, "")
	require.NoError(t, err)
	return h
}

func TestNoteRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	note := newNote(t, "user-1", "Chapter 1", "first impressions")
	require.NoError(t, repo.Create(ctx, note))

	t.Run("create duplicate conflicts", func(t *testing.T) {
		err := repo.Create(ctx, note)
		assert.True(t, pkgerrors.IsConflict(err))
	})

	t.Run("find returns an independent copy", func(t *testing.T) {
		got, err := repo.FindByID(ctx, note.ID())
		require.NoError(t, err)
		assert.Equal(t, note.ID(), got.ID())
		assert.Equal(t, "first impressions", got.Content())
		assert.NotSame(t, note, got)
	})

	t.Run("save persists updates", func(t *testing.T) {
		require.NoError(t, note.UpdateContent("revised"))
		require.NoError(t, repo.Save(ctx, note))

		got, err := repo.FindByID(ctx, note.ID())
		require.NoError(t, err)
		assert.Equal(t, "revised", got.Content())
	})

	t.Run("delete then find is not found", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, note))
		_, err := repo.FindByID(ctx, note.ID())
		assert.True(t, pkgerrors.IsNotFound(err))
	})

	t.Run("save unknown note is not found", func(t *testing.T) {
		err := repo.Save(ctx, note)
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestNoteRepositoryList(t *testing.T) {
	ctx := context.Background()
	repo := NewNoteRepository()

	first := newNote(t, "user-1", "Chapter 1", "a")
	second := newNote(t, "user-1", "Chapter 2", "b")
	other := newNote(t, "user-2", "Chapter 1", "c")
	for _, n := range []*annotation.Note{first, second, other} {
		require.NoError(t, repo.Create(ctx, n))
	}

	t.Run("owner scoped", func(t *testing.T) {
		notes, err := repo.List(ctx, "user-1", ports.Filter{})
		require.NoError(t, err)
		assert.Len(t, notes, 2)
		for _, n := range notes {
			assert.Equal(t, "user-1", n.OwnerID())
		}
	})

	t.Run("chapter filter", func(t *testing.T) {
		notes, err := repo.List(ctx, "user-1", ports.Filter{WorkTitle: "Confessions", ChapterTitle: "Chapter 2"})
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Equal(t, second.ID(), notes[0].ID())
	})

	t.Run("unknown owner is empty not error", func(t *testing.T) {
		notes, err := repo.List(ctx, "nobody", ports.Filter{})
		require.NoError(t, err)
		assert.Empty(t, notes)
	})
}

func TestHighlightRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewHighlightRepository()

	h := newHighlight(t, "user-1", "Chapter 1")
	require.NoError(t, repo.Create(ctx, h))

	got, err := repo.FindByID(ctx, h.ID())
	require.NoError(t, err)
	assert.Equal(t, h.ID(), got.ID())
	assert.Equal(t, annotation.ColorYellow, got.Color())

	require.NoError(t, h.SetColor(annotation.ColorBlue))
	require.NoError(t, repo.Save(ctx, h))
	got, err = repo.FindByID(ctx, h.ID())
	require.NoError(t, err)
	assert.Equal(t, annotation.ColorBlue, got.Color())

	require.NoError(t, repo.Delete(ctx, h))
	_, err = repo.FindByID(ctx, h.ID())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestHighlightRepositoryFindByNoteID(t *testing.T) {
	ctx := context.Background()
	repo := NewHighlightRepository()

	note := newNote(t, "user-1", "Chapter 1", "anchor note")

	linked := newHighlight(t, "user-1", "Chapter 1")
	linked.SetNoteID(note.ID())
	unlinked := newHighlight(t, "user-1", "Chapter 1")
	foreign := newHighlight(t, "user-2", "Chapter 1")
	foreign.SetNoteID(note.ID())
	for _, h := range []*annotation.Highlight{linked, unlinked, foreign} {
		require.NoError(t, repo.Create(ctx, h))
	}

	got, err := repo.FindByNoteID(ctx, "user-1", note.ID())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, linked.ID(), got[0].ID())
}
