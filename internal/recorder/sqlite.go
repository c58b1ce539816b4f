package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists batch outcomes to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the service writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS batches (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			period    TEXT,
			currency  TEXT,
			requested INTEGER,
			analyzed  INTEGER,
			failed    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_ts ON batches(timestamp)`,

		`CREATE TABLE IF NOT EXISTS ticker_results (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			batch_id     TEXT NOT NULL,
			timestamp    INTEGER NOT NULL,
			ticker       TEXT NOT NULL,
			state        TEXT,
			reason       TEXT,
			points       INTEGER,
			total_return REAL,
			max_close    REAL,
			min_close    REAL,
			volatility   REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_results_batch ON ticker_results(batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_results_ticker ON ticker_results(ticker, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordBatch writes the batch row and its per-ticker rows in one transaction.
func (r *SQLiteRecorder) RecordBatch(rec *BatchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().Unix()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO batches
		(id, timestamp, period, currency, requested, analyzed, failed)
		VALUES (?,?,?,?,?,?,?)`,
		rec.ID, now, rec.Period, rec.Currency, rec.Requested, rec.Analyzed, rec.Failed,
	); err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	for _, tr := range rec.Results {
		if _, err := tx.Exec(`INSERT INTO ticker_results
			(batch_id, timestamp, ticker, state, reason, points, total_return, max_close, min_close, volatility)
			VALUES (?,?,?,?,?,?,?,?,?,?)`,
			rec.ID, now, tr.Ticker, tr.State, tr.Reason, tr.Points,
			tr.TotalReturn, tr.MaxClose, tr.MinClose, tr.Volatility,
		); err != nil {
			return fmt.Errorf("insert ticker result: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
