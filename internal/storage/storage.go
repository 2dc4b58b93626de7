// Package storage persists completed detection runs and their duplicate
// pairs. The engine itself is storage-free; this is an outer consumer of
// the pair list so results can be re-displayed and resolved later.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"imagedupe/internal/models"
)

// Storage handles persistence of runs and duplicate pairs.
type Storage struct {
	db     *sql.DB
	dbPath string
}

// NewStorage opens (creating if needed) the database at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db, dbPath: dbPath}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Current schema version
const schemaVersion = 2

// migrations defines all schema migrations.
// Each migration should be idempotent (safe to run multiple times).
var migrations = []struct {
	version     int
	description string
	up          string
}{
	{
		version:     1,
		description: "Initial schema",
		up:          "", // Handled by base schema creation
	},
	{
		version:     2,
		description: "Add quality score columns for the resolve command",
		up: `
			ALTER TABLE pairs ADD COLUMN score1 REAL DEFAULT 0;
			ALTER TABLE pairs ADD COLUMN score2 REAL DEFAULT 0;
		`,
	},
}

func (s *Storage) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dir1 TEXT NOT NULL,
		dir2 TEXT DEFAULT '',
		method TEXT NOT NULL,
		strategy TEXT NOT NULL,
		threshold INTEGER NOT NULL,
		total_files INTEGER NOT NULL,
		total_pairs INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS pairs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path1 TEXT NOT NULL,
		name1 TEXT NOT NULL,
		size1 INTEGER NOT NULL,
		path2 TEXT NOT NULL,
		name2 TEXT NOT NULL,
		size2 INTEGER NOT NULL,
		similarity REAL NOT NULL,
		match_type TEXT NOT NULL,
		hash_difference INTEGER NOT NULL,
		score1 REAL DEFAULT 0,
		score2 REAL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_pairs_run_id ON pairs(run_id);
	CREATE INDEX IF NOT EXISTS idx_pairs_match_type ON pairs(match_type);
	`

	_, err = s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if err := s.migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// migrate runs pending schema migrations
func (s *Storage) migrate() error {
	currentVersion := s.getSchemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion || m.up == "" {
			continue
		}

		// Fresh databases already have the full base schema.
		if m.version == 2 {
			if s.columnExists("pairs", "score1") {
				s.setSchemaVersion(m.version)
				continue
			}
		}

		if _, err := s.db.Exec(m.up); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
		}

		s.setSchemaVersion(m.version)
	}

	return nil
}

func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0
	}
	return version
}

func (s *Storage) setSchemaVersion(version int) {
	s.db.Exec(`INSERT OR REPLACE INTO schema_version (version) VALUES (?)`, version)
}

// columnExists checks if a column exists in a table
func (s *Storage) columnExists(table, column string) bool {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?
	`, table, column).Scan(&count)
	if err != nil {
		return false
	}
	return count > 0
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun records a completed run and its pairs in one transaction and
// returns the new run ID.
func (s *Storage) SaveRun(run *models.Run, pairs []*models.DuplicatePair) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (dir1, dir2, method, strategy, threshold, total_files, total_pairs)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.Dir1, run.Dir2, string(run.Method), run.Strategy, run.Threshold, run.TotalFiles, len(pairs))
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO pairs (run_id, path1, name1, size1, path2, name2, size2,
			similarity, match_type, hash_difference, score1, score2)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range pairs {
		_, err := stmt.Exec(
			runID,
			p.First.Path, p.First.Filename, p.First.Size,
			p.Second.Path, p.Second.Filename, p.Second.Size,
			p.Similarity, string(p.Type), p.HashDifference,
			p.First.Score, p.Second.Score,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert pair %s / %s: %w", p.First.Path, p.Second.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// GetRun returns the run with the given ID.
func (s *Storage) GetRun(id int64) (*models.Run, error) {
	return s.scanRun(s.db.QueryRow(`
		SELECT id, dir1, dir2, method, strategy, threshold, total_files, total_pairs, created_at
		FROM runs WHERE id = ?
	`, id))
}

// LatestRun returns the most recently recorded run.
func (s *Storage) LatestRun() (*models.Run, error) {
	return s.scanRun(s.db.QueryRow(`
		SELECT id, dir1, dir2, method, strategy, threshold, total_files, total_pairs, created_at
		FROM runs ORDER BY id DESC LIMIT 1
	`))
}

func (s *Storage) scanRun(row *sql.Row) (*models.Run, error) {
	run := &models.Run{}
	var method, createdAt string
	err := row.Scan(&run.ID, &run.Dir1, &run.Dir2, &method, &run.Strategy,
		&run.Threshold, &run.TotalFiles, &run.TotalPairs, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.Method = models.Method(method)
	run.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return run, nil
}

// ListRuns returns all recorded runs, newest first.
func (s *Storage) ListRuns() ([]*models.Run, error) {
	rows, err := s.db.Query(`
		SELECT id, dir1, dir2, method, strategy, threshold, total_files, total_pairs, created_at
		FROM runs ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		var method, createdAt string
		err := rows.Scan(&run.ID, &run.Dir1, &run.Dir2, &method, &run.Strategy,
			&run.Threshold, &run.TotalFiles, &run.TotalPairs, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		run.Method = models.Method(method)
		run.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetPairs returns the pairs of a run in their recorded order. The
// records carry only the fields that were persisted: path, name, size
// and quality score.
func (s *Storage) GetPairs(runID int64) ([]*models.DuplicatePair, error) {
	rows, err := s.db.Query(`
		SELECT path1, name1, size1, path2, name2, size2,
			similarity, match_type, hash_difference, score1, score2
		FROM pairs WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []*models.DuplicatePair
	for rows.Next() {
		first := &models.FileRecord{}
		second := &models.FileRecord{}
		p := &models.DuplicatePair{First: first, Second: second}
		var matchType string
		err := rows.Scan(
			&first.Path, &first.Filename, &first.Size,
			&second.Path, &second.Filename, &second.Size,
			&p.Similarity, &matchType, &p.HashDifference,
			&first.Score, &second.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		p.Type = models.MatchType(matchType)
		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}

// DeletePairsForPath removes pairs referencing a path that no longer
// exists, keeping the saved run consistent after a resolve.
func (s *Storage) DeletePairsForPath(runID int64, path string) error {
	_, err := s.db.Exec(`
		DELETE FROM pairs WHERE run_id = ? AND (path1 = ? OR path2 = ?)
	`, runID, path, path)
	return err
}
