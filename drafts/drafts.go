// Package drafts keeps a local history of serialized schemas in SQLite.
//
// Each Save records a revision of a named document unless its content is
// identical to the latest revision of that name. Revisions are identified by
// their BLAKE3 digest.
package drafts

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"github.com/reoring/schemagraph/jsonschema"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a name or revision has no rows.
var ErrNotFound = errors.New("draft not found")

// Revision is one saved version of a document.
type Revision struct {
	ID        int64
	Name      string
	Digest    string
	Content   []byte
	CreatedAt time.Time
}

// Store is a draft database. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating drafts directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// sqlite has a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Digest returns the hex BLAKE3-256 digest of content.
func Digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Save records content as the newest revision of name. When content equals
// the latest revision, that revision is returned and created is false.
func (s *Store) Save(ctx context.Context, name string, content []byte) (rev Revision, created bool, err error) {
	if name == "" {
		return Revision{}, false, errors.New("drafts: empty name")
	}
	digest := Digest(content)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	latest, err := scanRevision(tx.QueryRowContext(ctx,
		`SELECT id, name, digest, content, created_at FROM revisions WHERE name = ? ORDER BY id DESC LIMIT 1`, name))
	switch {
	case err == nil && latest.Digest == digest:
		return latest, false, tx.Commit()
	case err != nil && !errors.Is(err, ErrNotFound):
		return Revision{}, false, err
	}

	rev = Revision{Name: name, Digest: digest, Content: append([]byte(nil), content...), CreatedAt: s.now().UTC()}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO revisions (name, digest, content, created_at) VALUES (?, ?, ?, ?)`,
		rev.Name, rev.Digest, rev.Content, rev.CreatedAt.UnixNano())
	if err != nil {
		return Revision{}, false, fmt.Errorf("inserting revision: %w", err)
	}
	if rev.ID, err = res.LastInsertId(); err != nil {
		return Revision{}, false, err
	}
	if err = tx.Commit(); err != nil {
		return Revision{}, false, fmt.Errorf("committing revision: %w", err)
	}
	return rev, true, nil
}

// Latest returns the newest revision of name.
func (s *Store) Latest(ctx context.Context, name string) (Revision, error) {
	return scanRevision(s.db.QueryRowContext(ctx,
		`SELECT id, name, digest, content, created_at FROM revisions WHERE name = ? ORDER BY id DESC LIMIT 1`, name))
}

// Get returns the revision with the given id.
func (s *Store) Get(ctx context.Context, id int64) (Revision, error) {
	return scanRevision(s.db.QueryRowContext(ctx,
		`SELECT id, name, digest, content, created_at FROM revisions WHERE id = ?`, id))
}

// History lists the revisions of name, newest first. Content is not loaded.
func (s *Store) History(ctx context.Context, name string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, digest, created_at FROM revisions WHERE name = ? ORDER BY id DESC`, name)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Revision
	for rows.Next() {
		var r Revision
		var ts int64
		if err := rows.Scan(&r.ID, &r.Name, &r.Digest, &ts); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		r.CreatedAt = time.Unix(0, ts).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Saver returns a function that serializes documents as indented JSON and
// saves them under name. It is meant as the save callback of an editor.
func (s *Store) Saver(name string) func(context.Context, *jsonschema.Object) (Revision, bool, error) {
	return func(ctx context.Context, doc *jsonschema.Object) (Revision, bool, error) {
		b, err := jsonschema.EncodeJSON(doc, 2)
		if err != nil {
			return Revision{}, false, err
		}
		return s.Save(ctx, name, b)
	}
}

func scanRevision(row *sql.Row) (Revision, error) {
	var r Revision
	var ts int64
	err := row.Scan(&r.ID, &r.Name, &r.Digest, &r.Content, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, ErrNotFound
	}
	if err != nil {
		return Revision{}, fmt.Errorf("querying revision: %w", err)
	}
	r.CreatedAt = time.Unix(0, ts).UTC()
	return r, nil
}
