package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/matzehuels/mockup/pkg/payload"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS designs (
    id           TEXT PRIMARY KEY,
    product_id   TEXT NOT NULL,
    product_slug TEXT NOT NULL,
    total_price  TEXT NOT NULL,
    payload      TEXT NOT NULL,
    created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS designs_product ON designs (product_id);
`

// SQLiteStore stores designs in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store needs a database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, persistence(err, "open sqlite")
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, persistence(err, "apply schema")
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveDesign(ctx context.Context, d *payload.Design) (string, error) {
	data, err := prepare(d)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO designs (id, product_id, product_slug, total_price, payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, total_price = excluded.total_price
    `, d.ID, d.ProductID, d.ProductSlug, d.TotalPrice.String(), string(data), d.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return "", persistence(err, "insert design %s", d.ID)
	}
	return d.ID, nil
}

func (s *SQLiteStore) GetDesign(ctx context.Context, id string) (*payload.Design, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM designs WHERE id = ?`, id)

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, persistence(err, "read design %s", id)
	}
	return payload.DecodeDesign([]byte(data))
}

// Count returns the number of stored designs.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM designs`).Scan(&n); err != nil {
		return 0, persistence(err, "count designs")
	}
	return n, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Designs = (*SQLiteStore)(nil)
