package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

func sampleHighlightInput() CreateHighlightInput {
	return CreateHighlightInput{
		WorkTitle:    "Confessions",
		PartTitle:    "Book VIII",
		ChapterTitle: "Chapter 5",
		Anchor:       *sampleAnchor(),
		Color:        "YELLOW",
	}
}

func TestCreateHighlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	h, err := f.hlSvc.CreateHighlight(ctx, "user-1", sampleHighlightInput())
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID())
	assert.Equal(t, annotation.ColorYellow, h.Color())
	assert.Equal(t, "the weight of habit", h.Anchor().Text)
}

func TestCreateHighlightDefaultsColor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	input := sampleHighlightInput()
	input.Color = ""
	h, err := f.hlSvc.CreateHighlight(ctx, "user-1", input)
	require.NoError(t, err)
	assert.Equal(t, annotation.ColorYellow, h.Color())
}

func TestCreateHighlightNoteReference(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	note, err := f.noteSvc.CreateNote(ctx, "user-1", sampleNoteInput())
	require.NoError(t, err)

	t.Run("valid reference", func(t *testing.T) {
		input := sampleHighlightInput()
		input.NoteID = note.ID()
		h, err := f.hlSvc.CreateHighlight(ctx, "user-1", input)
		require.NoError(t, err)
		assert.Equal(t, note.ID(), h.NoteID())
	})

	t.Run("dangling reference rejected", func(t *testing.T) {
		input := sampleHighlightInput()
		input.NoteID = "no-such-note"
		_, err := f.hlSvc.CreateHighlight(ctx, "user-1", input)
		assert.True(t, pkgerrors.IsInvalidReference(err))
	})

	t.Run("another owner's note rejected", func(t *testing.T) {
		input := sampleHighlightInput()
		input.NoteID = note.ID()
		_, err := f.hlSvc.CreateHighlight(ctx, "user-2", input)
		assert.True(t, pkgerrors.IsInvalidReference(err))
	})
}

func TestUpdateHighlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	h, err := f.hlSvc.CreateHighlight(ctx, "user-1", sampleHighlightInput())
	require.NoError(t, err)

	t.Run("change color", func(t *testing.T) {
		color := "GREEN"
		updated, err := f.hlSvc.UpdateHighlight(ctx, "user-1", h.ID(), UpdateHighlightInput{Color: &color})
		require.NoError(t, err)
		assert.Equal(t, annotation.ColorGreen, updated.Color())
	})

	t.Run("invalid color rejected", func(t *testing.T) {
		color := "CHARTREUSE"
		_, err := f.hlSvc.UpdateHighlight(ctx, "user-1", h.ID(), UpdateHighlightInput{Color: &color})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("attach then clear note reference", func(t *testing.T) {
		note, err := f.noteSvc.CreateNote(ctx, "user-1", sampleNoteInput())
		require.NoError(t, err)

		noteID := note.ID()
		updated, err := f.hlSvc.UpdateHighlight(ctx, "user-1", h.ID(), UpdateHighlightInput{NoteID: &noteID})
		require.NoError(t, err)
		assert.Equal(t, note.ID(), updated.NoteID())

		empty := ""
		updated, err = f.hlSvc.UpdateHighlight(ctx, "user-1", h.ID(), UpdateHighlightInput{NoteID: &empty})
		require.NoError(t, err)
		assert.Empty(t, updated.NoteID())
	})

	t.Run("owner mismatch is unauthorized", func(t *testing.T) {
		color := "BLUE"
		_, err := f.hlSvc.UpdateHighlight(ctx, "user-2", h.ID(), UpdateHighlightInput{Color: &color})
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})
}

func TestDeleteHighlight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	h, err := f.hlSvc.CreateHighlight(ctx, "user-1", sampleHighlightInput())
	require.NoError(t, err)

	t.Run("stranger cannot delete", func(t *testing.T) {
		err := f.hlSvc.DeleteHighlight(ctx, "user-2", h.ID())
		assert.True(t, pkgerrors.IsUnauthorized(err))
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, f.hlSvc.DeleteHighlight(ctx, "user-1", h.ID()))
		_, err := f.hlSvc.GetHighlight(ctx, "user-1", h.ID())
		assert.True(t, pkgerrors.IsNotFound(err))
	})
}

func TestListHighlights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.hlSvc.CreateHighlight(ctx, "user-1", sampleHighlightInput())
	require.NoError(t, err)

	other := sampleHighlightInput()
	other.ChapterTitle = "Chapter 12"
	_, err = f.hlSvc.CreateHighlight(ctx, "user-1", other)
	require.NoError(t, err)

	_, err = f.hlSvc.CreateHighlight(ctx, "user-2", sampleHighlightInput())
	require.NoError(t, err)

	all, err := f.hlSvc.ListHighlights(ctx, "user-1", ports.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := f.hlSvc.ListHighlights(ctx, "user-1", ports.Filter{WorkTitle: "Confessions", ChapterTitle: "Chapter 5"})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Chapter 5", scoped[0].Location().ChapterTitle)
}
