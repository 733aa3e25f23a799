// Package sqlite stores cookie definitions in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

const schemaVersion = 1

// CookieDefinitionRepo looks up cookie definitions by exact name.
type CookieDefinitionRepo struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies migrations.
func Open(path string) (*CookieDefinitionRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &CookieDefinitionRepo{db: db}, nil
}

func (r *CookieDefinitionRepo) Close() error { return r.db.Close() }

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= schemaVersion {
		return nil
	}
	schema := `
	CREATE TABLE IF NOT EXISTS cookie_definitions (
	  name        TEXT PRIMARY KEY,
	  category    TEXT NOT NULL,
	  script      TEXT,
	  script_url  TEXT,
	  description TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_cookie_definitions_category ON cookie_definitions(category);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// Get returns repository.ErrNotFound for unknown names.
func (r *CookieDefinitionRepo) Get(ctx context.Context, name string) (*entity.CookieDefinition, error) {
	var (
		def                         entity.CookieDefinition
		script, scriptURL, describe sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT name, category, script, script_url, description FROM cookie_definitions WHERE name = ?`, name,
	).Scan(&def.Name, &def.Category, &script, &scriptURL, &describe)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	def.Script, def.ScriptURL, def.Description = script.String, scriptURL.String, describe.String
	return &def, nil
}

// Upsert inserts or replaces definitions in one transaction.
func (r *CookieDefinitionRepo) Upsert(ctx context.Context, defs []entity.CookieDefinition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cookie_definitions (name, category, script, script_url, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
		  category = excluded.category,
		  script = excluded.script,
		  script_url = excluded.script_url,
		  description = excluded.description`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range defs {
		if d.Name == "" {
			continue
		}
		category := d.Category
		if category == "" {
			category = "Unknown"
		}
		if _, err := stmt.ExecContext(ctx, d.Name, category, d.Script, d.ScriptURL, d.Description); err != nil {
			return fmt.Errorf("upsert %s: %w", d.Name, err)
		}
	}
	return tx.Commit()
}

func (r *CookieDefinitionRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookie_definitions`).Scan(&n)
	return n, err
}

// ParseDefinitions reads a JSON object mapping cookie names to definitions.
// Names missing from an entry are taken from its key.
func ParseDefinitions(rd io.Reader) ([]entity.CookieDefinition, error) {
	var raw map[string]entity.CookieDefinition
	if err := json.NewDecoder(rd).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode cookie definitions: %w", err)
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]entity.CookieDefinition, 0, len(names))
	for _, name := range names {
		d := raw[name]
		if d.Name == "" {
			d.Name = name
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// ImportJSON loads definitions from rd and returns how many were stored.
func (r *CookieDefinitionRepo) ImportJSON(ctx context.Context, rd io.Reader) (int, error) {
	defs, err := ParseDefinitions(rd)
	if err != nil {
		return 0, err
	}
	if err := r.Upsert(ctx, defs); err != nil {
		return 0, err
	}
	return len(defs), nil
}
