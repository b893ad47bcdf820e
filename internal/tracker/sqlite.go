package tracker

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"CommoditySentinel/internal/model"
)

// SQLiteStore persists the trade log in a SQLite database. The composite
// key is enforced by a unique index, so concurrent writers cannot break the
// dedup invariant even outside the read-modify-write cycle.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for concurrent reads while the daily cycle writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite trade log opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trade_log (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			time_utc     TEXT NOT NULL,
			asset        TEXT NOT NULL,
			ticker       TEXT NOT NULL,
			signal_date  TEXT NOT NULL,
			direction    TEXT NOT NULL,
			entry_close  REAL NOT NULL,
			horizon_days INTEGER NOT NULL,
			evaluated    INTEGER NOT NULL DEFAULT 0,
			exit_date    TEXT,
			exit_close   REAL,
			return       REAL,
			correct      INTEGER
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_trade_key
			ON trade_log(asset, signal_date, direction)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// Load reads the whole log in insertion order.
func (s *SQLiteStore) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update runs one read-modify-write cycle under the store mutex. The
// unique index on the composite key backstops dedup against writers in
// other processes; Save only ever inserts or patches exit fields.
func (s *SQLiteStore) Update(fn func(entries []Entry) ([]Entry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	updated, err := fn(entries)
	if errors.Is(err, ErrNoChange) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.save(updated)
}

func (s *SQLiteStore) load() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT time_utc, asset, ticker, signal_date, direction,
		entry_close, horizon_days, evaluated, exit_date, exit_close, "return", correct
		FROM trade_log ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query trade log: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			timeUTC   string
			direction string
			evaluated int
			exitDate  sql.NullString
			exitClose sql.NullFloat64
			ret       sql.NullFloat64
			correct   sql.NullInt64
		)
		if err := rows.Scan(&timeUTC, &e.Asset, &e.Ticker, &e.SignalDate, &direction,
			&e.EntryClose, &e.HorizonDays, &evaluated, &exitDate, &exitClose, &ret, &correct); err != nil {
			return nil, fmt.Errorf("scan trade log row: %w", err)
		}
		e.LoggedAt, err = time.ParseInLocation(TimeLayout, timeUTC, time.UTC)
		if err != nil {
			log.Printf("[WARN] trade log row with bad time_utc %q skipped", timeUTC)
			continue
		}
		e.Direction = model.Action(direction)
		e.Evaluated = evaluated == 1
		if e.Evaluated {
			e.ExitDate = exitDate.String
			e.ExitClose = exitClose.Float64
			e.Return = ret.Float64
			e.Correct = correct.Int64 == 1
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Save upserts the full entry set in one transaction. Inserts dedup on the
// composite key (first write wins is enforced by the tracker's union logic);
// evaluated entries update their exit fields in place.
func (s *SQLiteStore) Save(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(entries)
}

func (s *SQLiteStore) save(entries []Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO trade_log
		(time_utc, asset, ticker, signal_date, direction, entry_close, horizon_days,
		 evaluated, exit_date, exit_close, "return", correct)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(asset, signal_date, direction) DO UPDATE SET
			evaluated=excluded.evaluated,
			exit_date=excluded.exit_date,
			exit_close=excluded.exit_close,
			"return"=excluded."return",
			correct=excluded.correct`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare save: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		var exitDate, exitClose, ret, correct interface{}
		if e.Evaluated {
			exitDate = e.ExitDate
			exitClose = e.ExitClose
			ret = e.Return
			correct = boolToInt(e.Correct)
		}
		if _, err := stmt.Exec(
			e.LoggedAt.UTC().Format(TimeLayout), e.Asset, e.Ticker, e.SignalDate,
			string(e.Direction), e.EntryClose, e.HorizonDays,
			boolToInt(e.Evaluated), exitDate, exitClose, ret, correct,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("save entry %s: %w", e.Key(), err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
