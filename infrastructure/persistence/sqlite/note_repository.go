package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/kyle-mirich/church-fathers-reader/application/ports"
	"github.com/kyle-mirich/church-fathers-reader/domain/core/annotation"
	pkgerrors "github.com/kyle-mirich/church-fathers-reader/pkg/errors"
)

type NoteRepository struct {
	store *Store
}

var _ ports.NoteRepository = (*NoteRepository)(nil)

func NewNoteRepository(store *Store) *NoteRepository {
	return &NoteRepository{store: store}
}

const noteColumns = `id, owner_id, work_title, part_title, chapter_title, title, content,
	note_type, selected_text, selection_start, selection_end, element_id, xpath,
	tags_json, is_public, created_at, updated_at`

func (r *NoteRepository) Create(ctx context.Context, note *annotation.Note) error {
	rec := note.Record()
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal tags")
	}

	_, err = r.store.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.WorkTitle, rec.PartTitle, rec.ChapterTitle,
		rec.Title, rec.Content, rec.NoteType,
		nullString(rec.SelectedText), nullInt(rec.SelectionStart), nullInt(rec.SelectionEnd),
		nullString(rec.ElementID), nullString(rec.XPath),
		string(tags), boolToInt(rec.IsPublic),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("insert note", err)
	}
	return nil
}

func (r *NoteRepository) Save(ctx context.Context, note *annotation.Note) error {
	rec := note.Record()
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return pkgerrors.Wrap(err, "marshal tags")
	}

	res, err := r.store.db.ExecContext(ctx,
		`UPDATE notes SET
			work_title = ?, part_title = ?, chapter_title = ?, title = ?,
			content = ?, note_type = ?, selected_text = ?, selection_start = ?,
			selection_end = ?, element_id = ?, xpath = ?, tags_json = ?,
			is_public = ?, updated_at = ?
		 WHERE id = ?`,
		rec.WorkTitle, rec.PartTitle, rec.ChapterTitle, rec.Title,
		rec.Content, rec.NoteType,
		nullString(rec.SelectedText), nullInt(rec.SelectionStart), nullInt(rec.SelectionEnd),
		nullString(rec.ElementID), nullString(rec.XPath), string(tags),
		boolToInt(rec.IsPublic),
		rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
		rec.ID,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("update note", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return pkgerrors.NewNotFoundError("note")
	}
	return nil
}

func (r *NoteRepository) FindByID(ctx context.Context, id string) (*annotation.Note, error) {
	row := r.store.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)

	rec, err := scanNote(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, pkgerrors.NewNotFoundError("note")
		}
		return nil, pkgerrors.NewDatabaseError("query note", err)
	}
	return annotation.NoteFromRecord(rec)
}

func (r *NoteRepository) Delete(ctx context.Context, note *annotation.Note) error {
	res, err := r.store.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, note.ID())
	if err != nil {
		return pkgerrors.NewDatabaseError("delete note", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return pkgerrors.NewNotFoundError("note")
	}
	return nil
}

func (r *NoteRepository) List(ctx context.Context, ownerID string, filter ports.Filter) ([]*annotation.Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE owner_id = ?`
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

	rows, err := r.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list notes", err)
	}
	defer rows.Close()

	var notes []*annotation.Note
	for rows.Next() {
		rec, err := scanNote(rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan note", err)
		}
		note, err := annotation.NoteFromRecord(rec)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list notes", err)
	}
	return notes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (annotation.NoteRecord, error) {
	var (
		rec            annotation.NoteRecord
		selectedText   sql.NullString
		selectionStart sql.NullInt64
		selectionEnd   sql.NullInt64
		elementID      sql.NullString
		xpath          sql.NullString
		tagsJSON       string
		isPublic       int
		createdAt      string
		updatedAt      string
	)
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.WorkTitle, &rec.PartTitle, &rec.ChapterTitle,
		&rec.Title, &rec.Content, &rec.NoteType,
		&selectedText, &selectionStart, &selectionEnd, &elementID, &xpath,
		&tagsJSON, &isPublic, &createdAt, &updatedAt,
	)
	if err != nil {
		return rec, err
	}

	rec.SelectedText = selectedText.String
	if selectionStart.Valid {
		v := int(selectionStart.Int64)
		rec.SelectionStart = &v
	}
	if selectionEnd.Valid {
		v := int(selectionEnd.Int64)
		rec.SelectionEnd = &v
	}
	rec.ElementID = elementID.String
	rec.XPath = xpath.String
	rec.IsPublic = isPublic != 0

	if err := json.Unmarshal([]byte(tagsJSON), &rec.Tags); err != nil {
		return rec, err
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return rec, err
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return rec, err
	}
	return rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
