package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

// HighlightRepository stores highlight records keyed by id.
type HighlightRepository struct {
	mu         sync.RWMutex
	highlights map[string]annotation.HighlightRecord
}

var _ ports.HighlightRepository = (*HighlightRepository)(nil)

func NewHighlightRepository() *HighlightRepository {
	return &HighlightRepository{highlights: make(map[string]annotation.HighlightRecord)}
}

func (r *HighlightRepository) Create(_ context.Context, h *annotation.Highlight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.highlights[h.ID()]; exists {
		return pkgerrors.NewConflictError("highlight already exists")
	}
	r.highlights[h.ID()] = h.Record()
	return nil
}

func (r *HighlightRepository) Save(_ context.Context, h *annotation.Highlight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.highlights[h.ID()]; !exists {
		return pkgerrors.NewNotFoundError("highlight")
	}
	r.highlights[h.ID()] = h.Record()
	return nil
}

func (r *HighlightRepository) FindByID(_ context.Context, id string) (*annotation.Highlight, error) {
	r.mu.RLock()
	rec, exists := r.highlights[id]
	r.mu.RUnlock()
	if !exists {
		return nil, pkgerrors.NewNotFoundError("highlight")
	}
	return annotation.HighlightFromRecord(rec)
}

func (r *HighlightRepository) Delete(_ context.Context, h *annotation.Highlight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.highlights[h.ID()]; !exists {
		return pkgerrors.NewNotFoundError("highlight")
	}
	delete(r.highlights, h.ID())
	return nil
}

func (r *HighlightRepository) List(_ context.Context, ownerID string, filter ports.Filter) ([]*annotation.Highlight, error) {
	r.mu.RLock()
	var matched []annotation.HighlightRecord
	for _, rec := range r.highlights {
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

	return buildSorted(matched)
}

func (r *HighlightRepository) FindByNoteID(_ context.Context, ownerID, noteID string) ([]*annotation.Highlight, error) {
	r.mu.RLock()
	var matched []annotation.HighlightRecord
	for _, rec := range r.highlights {
		if rec.OwnerID == ownerID && rec.NoteID == noteID {
			matched = append(matched, rec)
		}
	}
	r.mu.RUnlock()

	return buildSorted(matched)
}

func buildSorted(matched []annotation.HighlightRecord) ([]*annotation.Highlight, error) {
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	highlights := make([]*annotation.Highlight, 0, len(matched))
	for _, rec := range matched {
		h, err := annotation.HighlightFromRecord(rec)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, h)
	}
	return highlights, nil
}
