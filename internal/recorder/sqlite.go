package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"CryptoSentinel/internal/model"
)

// SQLiteRecorder persists valuation summaries to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS valuation_snapshots (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			asset      TEXT NOT NULL,
			source     TEXT,
			price      REAL,
			deviation  REAL,
			band       TEXT NOT NULL,
			note       TEXT,
			slope      REAL,
			intercept  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snap_asset_ts ON valuation_snapshots(asset, timestamp)`,

		`CREATE TABLE IF NOT EXISTS band_changes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			asset      TEXT NOT NULL,
			from_band  TEXT,
			to_band    TEXT,
			deviation  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_band_asset_ts ON band_changes(asset, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(rec *SnapshotRecord) error {
	if rec == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO valuation_snapshots
		(timestamp, asset, source, price, deviation, band, note, slope, intercept)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		rec.Timestamp.Unix(), rec.Asset, rec.Source, rec.Price,
		nullable(rec.Deviation), string(rec.Band), rec.Note,
		nullable(rec.Slope), nullable(rec.Intercept),
	)
	return err
}

func (r *SQLiteRecorder) RecordBandChange(evt *BandChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO band_changes
		(timestamp, asset, from_band, to_band, deviation)
		VALUES (?,?,?,?,?)`,
		evt.Timestamp.Unix(), evt.Asset, string(evt.From), string(evt.To), nullable(evt.Deviation),
	)
	return err
}

func (r *SQLiteRecorder) LastBand(asset string) (model.Band, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var band string
	err := r.db.QueryRow(`SELECT band FROM valuation_snapshots
		WHERE asset = ? ORDER BY timestamp DESC, id DESC LIMIT 1`, asset).Scan(&band)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return model.Band(band), true, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

func nullable(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
