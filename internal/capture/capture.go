// Package capture reads wireless capture databases produced by passive
// scanners (Kismet SQLite files) and exposes device rows and alerts to
// the analysis pipeline.
package capture

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoCaptures indicates that a directory contains no capture files.
var ErrNoCaptures = fmt.Errorf("no capture files found")

// Store provides read-only access to a single capture database. The
// file is not touched until the first read.
type Store struct {
	dbPath string

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewStore creates a store over the capture database at dbPath.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Path returns the capture database path the store was created with.
func (s *Store) Path() string { return s.dbPath }

func (s *Store) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

// Devices returns an iterator over the capture's device rows in last
// seen order. The returned reader must be closed after use and is not
// safe for concurrent use.
func (s *Store) Devices(ctx context.Context, opts ...ReaderOption) (*DeviceReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newDeviceReader(ctx, db, opts...)
}

// Alerts returns every alert recorded in the capture in time order,
// along with the number of alert rows dropped because their payload
// could not be parsed.
func (s *Store) Alerts(ctx context.Context) (alerts []Alert, skipped int, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectAlertsSQL)
	if err != nil {
		err = fmt.Errorf("querying alerts: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var data alertData
		if err = rows.Scan(&data.MAC, &data.Record, &data.TsSec); err != nil {
			err = fmt.Errorf("scanning alert: %w", err)
			return
		}

		alert, ok := toAlert(data)
		if !ok {
			skipped++
			continue
		}
		alerts = append(alerts, alert)
	}
	err = rows.Err()
	return
}

// Close releases the store's database resources.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.readDB != nil {
			s.closeErr = s.readDB.Close()
			s.readDB = nil
		}
	})

	return s.closeErr
}

// LatestCapture returns the most recently modified capture database
// (*.kismet) in dir. Entries that cannot be inspected are skipped.
func LatestCapture(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.kismet"))
	if err != nil {
		return "", fmt.Errorf("scanning %s: %w", dir, err)
	}

	var newest string
	var newestMod time.Time
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = path
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("%w in %s", ErrNoCaptures, dir)
	}
	return newest, nil
}
