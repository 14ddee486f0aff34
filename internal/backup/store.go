package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"photoaudit/internal/cleanup"
)

const schemaVersion = 1

// ErrSchemaMismatch indicates the archive was written by an incompatible
// version of this tool.
var ErrSchemaMismatch = errors.New("backup schema version mismatch")

const schemaSQL = `
CREATE TABLE schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE runs (
    id         TEXT PRIMARY KEY,
    profile_id TEXT NOT NULL,
    mode       TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE documents (
    run_id       TEXT NOT NULL REFERENCES runs(id),
    doc_id       TEXT NOT NULL,
    profile_id   TEXT NOT NULL,
    storage_path TEXT NOT NULL,
    blob_size    INTEGER NOT NULL,
    size_known   INTEGER NOT NULL,
    payload      TEXT NOT NULL,
    PRIMARY KEY (run_id, doc_id)
);

CREATE INDEX idx_documents_profile ON documents(profile_id);
`

// Run identifies one archived cleanup pass.
type Run struct {
	ID        string
	ProfileID string
	Mode      string
	CreatedAt time.Time
}

// NewRun mints a run for the given subject. Mode records whether the cleanup
// that follows is a dry run or a live delete.
func NewRun(profileID string, dryRun bool) Run {
	mode := "live"
	if dryRun {
		mode = "dry-run"
	}
	return Run{
		ID:        uuid.NewString(),
		ProfileID: profileID,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
	}
}

// Document is one archived photoHistory document.
type Document struct {
	RunID       string
	DocID       string
	ProfileID   string
	StoragePath string
	BlobSize    int64
	SizeKnown   bool
	Payload     map[string]any
}

// Store persists archives in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the archive database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Archive persists the run and every candidate document in one transaction.
func (s *Store) Archive(ctx context.Context, run Run, candidates []cleanup.Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO runs (id, profile_id, mode, created_at) VALUES (?, ?, ?, ?)",
		run.ID, run.ProfileID, run.Mode, run.CreatedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	for _, cand := range candidates {
		payload, err := encodePayload(cand)
		if err != nil {
			return fmt.Errorf("encode document %s: %w", cand.Record.ID, err)
		}
		sizeKnown := 0
		if cand.SizeKnown {
			sizeKnown = 1
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO documents (run_id, doc_id, profile_id, storage_path, blob_size, size_known, payload) VALUES (?, ?, ?, ?, ?, ?, ?)",
			run.ID, cand.Record.ID, cand.Record.ProfileID, cand.Path, cand.Size, sizeKnown, payload,
		); err != nil {
			return fmt.Errorf("insert document %s: %w", cand.Record.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	return nil
}

// Runs lists archived runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, profile_id, mode, created_at FROM runs ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var created string
		if err := rows.Scan(&run.ID, &run.ProfileID, &run.Mode, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, created); parseErr == nil {
			run.CreatedAt = ts
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Documents returns every document archived under a run.
func (s *Store) Documents(ctx context.Context, runID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT run_id, doc_id, profile_id, storage_path, blob_size, size_known, payload FROM documents WHERE run_id = ? ORDER BY doc_id",
		runID)
	if err != nil {
		return nil, fmt.Errorf("query documents for run %s: %w", runID, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var sizeKnown int
		var payload string
		if err := rows.Scan(&doc.RunID, &doc.DocID, &doc.ProfileID, &doc.StoragePath, &doc.BlobSize, &sizeKnown, &payload); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc.SizeKnown = sizeKnown != 0
		if err := json.Unmarshal([]byte(payload), &doc.Payload); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.DocID, err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func encodePayload(cand cleanup.Candidate) (string, error) {
	payload := cand.Record.Data
	if payload == nil {
		// Records built without raw data still archive their typed fields.
		payload = map[string]any{
			"id":             cand.Record.ID,
			"profileId":      cand.Record.ProfileID,
			"imageUrl":       cand.Record.ImageURL,
			"storagePath":    cand.Record.StoragePath,
			"rejected":       cand.Record.Rejected,
			"backfillSource": cand.Record.BackfillSource,
		}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
