package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

type HighlightRepository struct {
	store *Store
}

var _ ports.HighlightRepository = (*HighlightRepository)(nil)

func NewHighlightRepository(store *Store) *HighlightRepository {
	return &HighlightRepository{store: store}
}

const highlightColumns = `id, owner_id, note_id, work_title, part_title, chapter_title,
	selected_text, color, selection_start, selection_end, element_id, xpath,
	created_at, updated_at`

func (r *HighlightRepository) Create(ctx context.Context, h *annotation.Highlight) error {
	rec := h.Record()
	_, err := r.store.db.ExecContext(ctx,
		`INSERT INTO highlights (`+highlightColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.NoteID, rec.WorkTitle, rec.PartTitle, rec.ChapterTitle,
		rec.SelectedText, rec.Color, rec.SelectionStart, rec.SelectionEnd,
		nullString(rec.ElementID), nullString(rec.XPath),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("insert highlight", err)
	}
	return nil
}

func (r *HighlightRepository) Save(ctx context.Context, h *annotation.Highlight) error {
	rec := h.Record()
	res, err := r.store.db.ExecContext(ctx,
		`UPDATE highlights SET
			note_id = ?, work_title = ?, part_title = ?, chapter_title = ?,
			selected_text = ?, color = ?, selection_start = ?, selection_end = ?,
			element_id = ?, xpath = ?, updated_at = ?
		 WHERE id = ?`,
		rec.NoteID, rec.WorkTitle, rec.PartTitle, rec.ChapterTitle,
		rec.SelectedText, rec.Color, rec.SelectionStart, rec.SelectionEnd,
		nullString(rec.ElementID), nullString(rec.XPath),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		rec.ID,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("update highlight", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return pkgerrors.NewNotFoundError("highlight")
	}
	return nil
}

func (r *HighlightRepository) FindByID(ctx context.Context, id string) (*annotation.Highlight, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+highlightColumns+` FROM highlights WHERE id = ?`, id)

	rec, err := scanHighlight(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("highlight")
		}
		return nil, pkgerrors.NewDatabaseError("query highlight", err)
	}
	return annotation.HighlightFromRecord(rec)
}

func (r *HighlightRepository) Delete(ctx context.Context, h *annotation.Highlight) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM highlights WHERE id = ?`, h.ID())
	if err != nil {
		return pkgerrors.NewDatabaseError("delete highlight", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return pkgerrors.NewNotFoundError("highlight")
	}
	return nil
}

func (r *HighlightRepository) List(ctx context.Context, ownerID string, filter ports.Filter) ([]*annotation.Highlight, error) {
	query := `SELECT ` + highlightColumns + ` FROM highlights WHERE owner_id = ?`
	args := []any{ownerID}
	if filter.WorkTitle != "" {
		query += ` AND work_title = ?`
		args = append(args, filter.WorkTitle)
	}
	if filter.ChapterTitle != "" {
		query += ` AND chapter_title = ?`
		args = append(args, filter.ChapterTitle)
	}
	query += ` ORDER BY created_at DESC, id`

	return r.queryHighlights(ctx, query, args...)
}

func (r *HighlightRepository) FindByNoteID(ctx context.Context, ownerID, noteID string) ([]*annotation.Highlight, error) {
	return r.queryHighlights(ctx,
		`SELECT `+highlightColumns+` FROM highlights
		 WHERE owner_id = ? AND note_id = ?
		 ORDER BY created_at DESC, id`,
		ownerID, noteID)
}

func (r *HighlightRepository) queryHighlights(ctx context.Context, query string, args ...any) ([]*annotation.Highlight, error) {
	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list highlights", err)
	}
	defer rows.Close()

	var highlights []*annotation.Highlight
	for rows.Next() {
		rec, err := scanHighlight(rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan highlight", err)
		}
		h, err := annotation.HighlightFromRecord(rec)
		if err != nil {
			return nil, err
		}
		highlights = append(highlights, h)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list highlights", err)
	}
	return highlights, nil
}

func scanHighlight(row rowScanner) (annotation.HighlightRecord, error) {
	var (
		rec       annotation.HighlightRecord
		elementID sql.NullString
		xpath     sql.NullString
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.NoteID, &rec.WorkTitle, &rec.PartTitle, &rec.ChapterTitle,
		&rec.SelectedText, &rec.Color, &rec.SelectionStart, &rec.SelectionEnd,
		&elementID, &xpath, &createdAt, &updatedAt,
	)
	if err != nil {
		return rec, err
	}

	rec.ElementID = elementID.String
	rec.XPath = xpath.String
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return rec, err
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return rec, err
	}
	return rec, nil
}
