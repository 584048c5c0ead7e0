// Package memory provides mutex-guarded in-memory repositories. They back
// the unit tests and local development without a database, and they are the
// reference behavior the real stores are tested against.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// NoteRepository stores note records keyed by id. Entities are flattened to
// records on write and rebuilt on read, so callers never share entity
// state with the store.
type NoteRepository struct {
	mu    sync.RWMutex
	notes map[string]annotation.NoteRecord
}

var _ ports.NoteRepository = (*NoteRepository)(nil)

func NewNoteRepository() *NoteRepository {
	return &NoteRepository{notes: make(map[string]annotation.NoteRecord)}
}

func (r *NoteRepository) Create(_ context.Context, note *annotation.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notes[note.ID()]; exists {
		return pkgerrors.NewConflictError("note already exists")
	}
	r.notes[note.ID()] = note.Record()
	return nil
}

func (r *NoteRepository) Save(_ context.Context, note *annotation.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notes[note.ID()]; !exists {
		return pkgerrors.NewNotFoundError("note")
	}
	r.notes[note.ID()] = note.Record()
	return nil
}

func (r *NoteRepository) FindByID(_ context.Context, id string) (*annotation.Note, error) {
	r.mu.RLock()
	rec, exists := r.notes[id]
	r.mu.RUnlock()
	if !exists {
		return nil, pkgerrors.NewNotFoundError("note")
	}
	return annotation.NoteFromRecord(rec)
}

func (r *NoteRepository) Delete(_ context.Context, note *annotation.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.notes[note.ID()]; !exists {
		return pkgerrors.NewNotFoundError("note")
	}
	delete(r.notes, note.ID())
	return nil
}

func (r *NoteRepository) List(_ context.Context, ownerID string, filter ports.Filter) ([]*annotation.Note, error) {
	r.mu.RLock()
	var matched []annotation.NoteRecord
	for _, rec := range r.notes {
		if rec.OwnerID != ownerID {
			continue
		}
		if filter.WorkTitle != "" && rec.WorkTitle != filter.WorkTitle {
			continue
		}
		if filter.ChapterTitle != "" && rec.ChapterTitle != filter.ChapterTitle {
			continue
		}
		matched = append(matched, rec)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	notes := make([]*annotation.Note, 0, len(matched))
	for _, rec := range matched {
		note, err := annotation.NoteFromRecord(rec)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}
