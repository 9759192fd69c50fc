package note

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"dynhttp/internal/platform/pg"
	"dynhttp/internal/platform/sqlite"
	"dynhttp/internal/shared"
)

// Store reads and writes notes. Queries use $n placeholders, which both the
// SQLite and the PostgreSQL driver accept.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore returns a Store over db. The schema must already be migrated.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Migrate applies the schema for driver from dir of fsys.
func Migrate(db *sql.DB, driver string, fsys fs.FS, dir string) error {
	switch driver {
	case "sqlite":
		_, err := sqlite.ApplyMigrations(db, fsys, dir)
		return err
	case "postgres":
		_, err := pg.ApplyMigrations(db, fsys, dir)
		return err
	default:
		return shared.Invariant(false, fmt.Sprintf("unsupported driver %q", driver))
	}
}

// Create stores a new note. It fails with a validation error for bad input
// and a conflict error when the slug is taken.
func (s *Store) Create(ctx context.Context, in CreateInput) (Note, error) {
	if msg := in.Validate(); msg != "" {
		return Note{}, shared.Validation(msg)
	}

	n := Note{
		Slug:      in.Slug,
		Title:     in.Title,
		Body:      in.Body,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO notes (slug, title, body, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		n.Slug, n.Title, n.Body, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Note{}, shared.WithCause(shared.KindConflict,
				fmt.Sprintf("note with slug %q already exists", in.Slug), err)
		}
		return Note{}, shared.Wrap(err, "insert note")
	}
	return n, nil
}

// Get returns the note with id.
func (s *Store) Get(ctx context.Context, id int64) (Note, error) {
	var n Note
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, title, body, created_at FROM notes WHERE id = $1`, id,
	).Scan(&n.ID, &n.Slug, &n.Title, &n.Body, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, shared.NotFound(fmt.Sprintf("note %d not found", id))
	}
	if err != nil {
		return Note{}, shared.Wrapf(err, "select note %d", id)
	}
	return n, nil
}

// List returns up to limit notes ordered by id.
func (s *Store) List(ctx context.Context, limit int) ([]Note, error) {
	if limit < 1 || limit > MaxListLimit {
		return nil, shared.Validation(fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, title, body, created_at FROM notes ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, shared.Wrap(err, "list notes")
	}
	defer func() { _ = rows.Close() }()

	notes := make([]Note, 0, limit)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Slug, &n.Title, &n.Body, &n.CreatedAt); err != nil {
			return nil, shared.Wrap(err, "scan note")
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.Wrap(err, "list notes")
	}
	return notes, nil
}

// Delete removes the note with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return shared.Wrapf(err, "delete note %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return shared.Wrapf(err, "delete note %d", id)
	}
	if n == 0 {
		return shared.NotFound(fmt.Sprintf("note %d not found", id))
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return shared.Wrap(s.db.PingContext(ctx), "ping database")
}

func isUniqueViolation(err error) bool {
	return sqlite.IsUniqueViolation(err) || pg.IsUniqueViolation(err)
}
