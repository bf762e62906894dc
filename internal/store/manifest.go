package store

import (
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Stage names recorded in the manifest.
const (
	StageCollectTransit = "collect_transit"
	StageCollectWeather = "collect_weather"
	StageMerge          = "merge"
	StageTrain          = "train"
)

// Run is one manifest entry: a stage execution with its resolved input and
// the artifact it produced. InputSHA256 pins the exact bytes a stage
// consumed so a model can be traced back to the processed snapshot it
// trained on, instead of inferring correspondence from file mtimes.
type Run struct {
	ID          string
	Stage       string
	InputPath   string
	InputSHA256 string
	OutputPath  string
	CreatedAt   time.Time
}

// Manifest is the sqlite-backed run registry.
type Manifest struct {
	db *sql.DB
}

// OpenManifest opens (and if needed creates) the manifest database at path,
// running any pending schema migrations.
func OpenManifest(path string) (*Manifest, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create manifest dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest db: %w", err)
	}

	m := &Manifest{db: db}
	if err := m.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the underlying database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

func (m *Manifest) migrateUp() error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(m.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	mg, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	// Note: we don't close mg because it would close the underlying DB
	// connection.

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// RecordRun inserts a manifest entry, assigning a run ID and timestamp if
// unset, and returns the stored run.
func (m *Manifest) RecordRun(r Run) (Run, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := m.db.Exec(
		`INSERT INTO runs (run_id, stage, input_path, input_sha256, output_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Stage, r.InputPath, r.InputSHA256, r.OutputPath, r.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("record %s run: %w", r.Stage, err)
	}
	return r, nil
}

// LatestRun returns the most recently recorded run for a stage, or
// ErrNoArtifacts when the stage has never run.
func (m *Manifest) LatestRun(stage string) (Run, error) {
	row := m.db.QueryRow(
		`SELECT run_id, stage, input_path, input_sha256, output_path, created_at
		 FROM runs WHERE stage = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		stage,
	)

	var r Run
	var createdAt string
	err := row.Scan(&r.ID, &r.Stage, &r.InputPath, &r.InputSHA256, &r.OutputPath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: stage %s has no recorded runs", ErrNoArtifacts, stage)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query latest %s run: %w", stage, err)
	}

	r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Run{}, fmt.Errorf("parse run timestamp %q: %w", createdAt, err)
	}
	return r, nil
}

// Runs returns all manifest entries for a stage, newest first.
func (m *Manifest) Runs(stage string) ([]Run, error) {
	rows, err := m.db.Query(
		`SELECT run_id, stage, input_path, input_sha256, output_path, created_at
		 FROM runs WHERE stage = ? ORDER BY created_at DESC, rowid DESC`,
		stage,
	)
	if err != nil {
		return nil, fmt.Errorf("query %s runs: %w", stage, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Stage, &r.InputPath, &r.InputSHA256, &r.OutputPath, &createdAt); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", createdAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HashBytes returns the hex SHA-256 of data, as stored in InputSHA256.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
