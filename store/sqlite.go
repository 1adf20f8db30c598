// ABOUTME: SQLite-backed archive for model documents keyed by model id.
// ABOUTME: The YAML document is the stored truth; name and node count are denormalized for lists.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/2389-research/galton/model"
)

// schemaVersion is recorded in the meta table on open.
const schemaVersion = "1"

// ErrNotFound is returned when no model with the requested id is stored.
var ErrNotFound = errors.New("model not found")

// ModelSummary is one row of a list query.
type ModelSummary struct {
	ModelID   string `json:"model_id"`
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
	UpdatedAt string `json:"updated_at"`
}

// Store is a SQLite-backed model archive.
type Store struct {
	db *sql.DB
}

// Open opens or creates the archive database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS models (
			model_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			doc TEXT NOT NULL,
			node_count INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if _, err := db.Exec(
		`INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		schemaVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts m keyed by its model id.
func (s *Store) Save(m *model.Model) error {
	if m.ID == "" {
		return errors.New("model has no id")
	}

	doc, err := model.EncodeYAML(m)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO models (model_id, name, doc, node_count, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(model_id) DO UPDATE SET
			name = excluded.name,
			doc = excluded.doc,
			node_count = excluded.node_count,
			updated_at = excluded.updated_at`,
		m.ID, m.Name, string(doc), len(m.Nodes),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert model: %w", err)
	}
	return nil
}

// Load reads and parses the model with the given id.
func (s *Store) Load(id string) (*model.Model, error) {
	var doc string
	err := s.db.QueryRow("SELECT doc FROM models WHERE model_id = ?", id).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query model: %w", err)
	}

	m, err := model.ParseYAML([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decode stored model %s: %w", id, err)
	}
	return m, nil
}

// List returns summaries of every stored model, most recently updated
// first.
func (s *Store) List() ([]ModelSummary, error) {
	rows, err := s.db.Query(
		"SELECT model_id, name, node_count, updated_at FROM models ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []ModelSummary
	for rows.Next() {
		var m ModelSummary
		if err := rows.Scan(&m.ModelID, &m.Name, &m.NodeCount, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan model row: %w", err)
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// Delete removes the model with the given id.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM models WHERE model_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SchemaVersion reads the schema version recorded in the meta table.
func (s *Store) SchemaVersion() (string, error) {
	var v string
	if err := s.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&v); err != nil {
		return "", fmt.Errorf("query schema version: %w", err)
	}
	return v, nil
}
