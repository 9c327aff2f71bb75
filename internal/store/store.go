// Package store keeps named layouts in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"
	_ "modernc.org/sqlite"

	"docklayout/internal/config"
	"docklayout/internal/layout"
	"docklayout/internal/trace"
)

// ErrNotFound is returned for a layout name that is not saved.
var ErrNotFound = errors.New("layout not found")

// DefaultFile is the database name inside the data directory.
const DefaultFile = "layouts.db"

const schemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_meta (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS layouts (
	name        TEXT PRIMARY KEY,
	config      TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// Summary describes a saved layout without decoding it.
type Summary struct {
	Name      string
	UpdatedAt time.Time
	// Bytes is the size of the minified config.
	Bytes int
}

// Store is a SQLite-backed set of named layouts.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and brings the schema up
// to date. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One connection: an in-memory database exists per connection, and
	// writes are serialised by SQLite anyway.
	db.SetMaxOpenConns(1)

	ver, err := currentSchemaVersion(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("check schema version: %w", err)
	}
	if ver < schemaVersion {
		if err := migrate(db, ver); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

func currentSchemaVersion(db *sql.DB) (int, error) {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='schema_meta'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var ver int
	err = db.QueryRow(`SELECT version FROM schema_meta LIMIT 1`).Scan(&ver)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return ver, err
}

func migrate(db *sql.DB, from int) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if from < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM schema_meta`); err != nil {
		return err
	}
	if _, err := tx.Exec(`INSERT INTO schema_meta (version) VALUES (?)`, schemaVersion); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("layout name is empty")
	}
	return nil
}

// Save stores cfg minified under name, replacing any earlier version.
func (s *Store) Save(ctx context.Context, name string, cfg config.ResolvedLayoutConfig) error {
	ctx, span := trace.Start(ctx, "store.save", attribute.String("name", name))
	defer span.End()

	if err := checkName(name); err != nil {
		trace.Fail(span, err)
		return err
	}
	data, err := config.MinifyLayout(cfg)
	if err != nil {
		trace.Fail(span, err)
		return fmt.Errorf("minify layout %s: %w", name, err)
	}
	span.SetAttributes(attribute.Int("bytes", len(data)))
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO layouts (name, config, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at`,
		name, string(data), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		trace.Fail(span, err)
		return fmt.Errorf("save layout %s: %w", name, err)
	}
	return nil
}

// Load returns the layout saved under name.
func (s *Store) Load(ctx context.Context, name string) (config.ResolvedLayoutConfig, error) {
	data, err := s.Raw(ctx, name)
	if err != nil {
		return config.ResolvedLayoutConfig{}, err
	}
	cfg, err := config.UnminifyLayout(data)
	if err != nil {
		return config.ResolvedLayoutConfig{}, fmt.Errorf("load layout %s: %w", name, err)
	}
	return cfg, nil
}

// Raw returns the minified config saved under name.
func (s *Store) Raw(ctx context.Context, name string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT config FROM layouts WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", name, err)
	}
	return []byte(data), nil
}

// List returns the saved layouts by name.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, updated_at, length(config) FROM layouts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated string
		)
		if err := rows.Scan(&sum.Name, &updated, &sum.Bytes); err != nil {
			return nil, fmt.Errorf("list layouts: %w", err)
		}
		if sum.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("layout %s: bad timestamp %q", sum.Name, updated)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes the layout saved under name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM layouts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete layout %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// AutoSave saves m's layout under name after every state change. It
// returns the function that stops it. Saves run on m's owner goroutine.
func (s *Store) AutoSave(ctx context.Context, m *layout.Manager, name string, logger *log.Logger) func() {
	if logger == nil {
		logger = m.Logger()
	}
	return m.On(layout.EventStateChanged, func(*layout.Event) {
		if err := s.Save(ctx, name, m.SaveLayout()); err != nil {
			logger.Error("auto-save layout", "name", name, "err", err)
			return
		}
		logger.Debug("layout saved", "name", name)
	})
}
