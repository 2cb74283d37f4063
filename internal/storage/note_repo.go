package storage

import (
	"context"
	"errors"
	"fmt"

	"litnotes/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNoteNotFound = errors.New("note not found")

const noteColumns = `id::text, title, authors, publication, year, keywords, content, created_at, updated_at`

type NoteRepo struct {
	db *DB
}

func NewNoteRepo(db *DB) *NoteRepo {
	return &NoteRepo{db: db}
}

func scanNote(row pgx.Row) (models.Note, error) {
	var n models.Note
	err := row.Scan(&n.ID, &n.Title, &n.Authors, &n.Publication, &n.Year, &n.Keywords, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func (r *NoteRepo) Create(ctx context.Context, in models.NoteInput) (models.Note, error) {
	n, err := scanNote(r.db.Pool.QueryRow(ctx, `
INSERT INTO notes (id, title, authors, publication, year, keywords, content)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING `+noteColumns,
		uuid.NewString(), in.Title, orEmpty(in.Authors), in.Publication, in.Year, orEmpty(in.Keywords), in.Content,
	))
	if err != nil {
		return models.Note{}, fmt.Errorf("insert note: %w", err)
	}
	return n, nil
}

func (r *NoteRepo) Get(ctx context.Context, id string) (models.Note, error) {
	n, err := scanNote(r.db.Pool.QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

func (r *NoteRepo) Update(ctx context.Context, id string, in models.NoteInput) (models.Note, error) {
	n, err := scanNote(r.db.Pool.QueryRow(ctx, `
UPDATE notes
SET title=$2, authors=$3, publication=$4, year=$5, keywords=$6, content=$7, updated_at=NOW()
WHERE id=$1
RETURNING `+noteColumns,
		id, in.Title, orEmpty(in.Authors), in.Publication, in.Year, orEmpty(in.Keywords), in.Content,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Note{}, ErrNoteNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("update note: %w", err)
	}
	return n, nil
}

// Delete removes the note; its embeddings go with it via ON DELETE CASCADE.
func (r *NoteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM notes WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// List returns notes newest first.
func (r *NoteRepo) List(ctx context.Context, limit, offset int) ([]models.Note, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+noteColumns+`
FROM notes
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return collectNotes(rows)
}

func (r *NoteRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Note, error) {
	if len(ids) == 0 {
		return []models.Note{}, nil
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT `+noteColumns+`
FROM notes
WHERE id::text = ANY($1)
ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list notes by ids: %w", err)
	}
	return collectNotes(rows)
}

// ListIDs returns every note id, oldest first, for backfills.
func (r *NoteRepo) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id::text FROM notes ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list note ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("iterate note ids: %w", err)
	}
	return ids, nil
}

func collectNotes(rows pgx.Rows) ([]models.Note, error) {
	defer rows.Close()
	out := make([]models.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}
