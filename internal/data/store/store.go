package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"phpmap/internal/engine/classmap"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// ScanRecord is the persisted metadata of one completed scan.
type ScanRecord struct {
	Directory   string
	Fingerprint uint64
	Timestamp   time.Time
	SymbolCount int
	StaticCount int
}

// Store persists scan results in a local sqlite database so watch mode and
// repeated CLI runs can inspect earlier scans without redoing them.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveMapping replaces the stored scan for (directory, fingerprint) with the
// given mapping. Symbol rows keep their insertion position so a reload
// reproduces lookup order exactly.
func (s *Store) SaveMapping(mapping *classmap.Mapping, fingerprint uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withRetry("save mapping", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}

		fpText := fmt.Sprintf("%016x", fingerprint)
		if _, err := tx.Exec(
			`DELETE FROM scans WHERE directory = ? AND fingerprint = ?`,
			mapping.Dir, fpText,
		); err != nil {
			_ = tx.Rollback()
			return err
		}

		res, err := tx.Exec(
			`INSERT INTO scans (directory, fingerprint, ts_utc, symbol_count, static_count) VALUES (?, ?, ?, ?, ?)`,
			mapping.Dir,
			fpText,
			time.Now().UTC().Format(time.RFC3339Nano),
			mapping.Len(),
			len(mapping.StaticFiles),
		)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		scanID, err := res.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return err
		}

		for i, name := range mapping.Names() {
			path, _ := mapping.Path(name)
			if _, err := tx.Exec(
				`INSERT INTO symbols (scan_id, position, name, path) VALUES (?, ?, ?, ?)`,
				scanID, i, name, path,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		for i, path := range mapping.StaticFiles {
			if _, err := tx.Exec(
				`INSERT INTO static_files (scan_id, position, path) VALUES (?, ?, ?)`,
				scanID, i, path,
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}

		return tx.Commit()
	})
}

// LoadMapping rebuilds the most recently saved mapping for
// (directory, fingerprint). The second return is false when no scan is
// stored for that key.
func (s *Store) LoadMapping(directory string, fingerprint uint64) (*classmap.Mapping, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fpText := fmt.Sprintf("%016x", fingerprint)

	var scanID int64
	err := s.withRetry("load scan", func() error {
		return s.db.QueryRow(
			`SELECT id FROM scans WHERE directory = ? AND fingerprint = ? ORDER BY ts_utc DESC, id DESC LIMIT 1`,
			directory, fpText,
		).Scan(&scanID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	mapping := classmap.NewMapping(directory)

	var rows *sql.Rows
	err = s.withRetry("load symbols", func() error {
		var qErr error
		rows, qErr = s.db.Query(
			`SELECT name, path FROM symbols WHERE scan_id = ? ORDER BY position ASC`, scanID,
		)
		return qErr
	})
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var name, path string
		if err := rows.Scan(&name, &path); err != nil {
			return nil, false, fmt.Errorf("scan symbol row: %w", err)
		}
		mapping.Add(name, path)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate symbol rows: %w", err)
	}

	var staticRows *sql.Rows
	err = s.withRetry("load static files", func() error {
		var qErr error
		staticRows, qErr = s.db.Query(
			`SELECT path FROM static_files WHERE scan_id = ? ORDER BY position ASC`, scanID,
		)
		return qErr
	})
	if err != nil {
		return nil, false, err
	}
	defer staticRows.Close()
	for staticRows.Next() {
		var path string
		if err := staticRows.Scan(&path); err != nil {
			return nil, false, fmt.Errorf("scan static file row: %w", err)
		}
		mapping.StaticFiles = append(mapping.StaticFiles, path)
	}
	if err := staticRows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate static file rows: %w", err)
	}

	return mapping, true, nil
}

// ListScans returns stored scan metadata for a directory, newest first. An
// empty directory lists every scan.
func (s *Store) ListScans(directory string) ([]ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT directory, fingerprint, ts_utc, symbol_count, static_count FROM scans`
	args := make([]any, 0, 1)
	if directory != "" {
		query += ` WHERE directory = ?`
		args = append(args, directory)
	}
	query += ` ORDER BY ts_utc DESC, id DESC`

	var rows *sql.Rows
	err := s.withRetry("list scans", func() error {
		var qErr error
		rows, qErr = s.db.Query(query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]ScanRecord, 0)
	for rows.Next() {
		var (
			rec    ScanRecord
			fpText string
			tsRaw  string
		)
		if err := rows.Scan(&rec.Directory, &fpText, &tsRaw, &rec.SymbolCount, &rec.StaticCount); err != nil {
			return nil, fmt.Errorf("scan record row: %w", err)
		}
		if _, err := fmt.Sscanf(fpText, "%016x", &rec.Fingerprint); err != nil {
			return nil, fmt.Errorf("parse fingerprint %q: %w", fpText, err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse scan timestamp %q: %w", tsRaw, err)
		}
		rec.Timestamp = ts.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan rows: %w", err)
	}

	return records, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
