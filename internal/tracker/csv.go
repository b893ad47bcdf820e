package tracker

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"CommoditySentinel/internal/model"
)

var csvHeader = []string{
	"time_utc", "asset", "ticker", "signal_date", "direction",
	"entry_close", "horizon_days", "evaluated",
	"exit_date", "exit_close", "return", "correct",
}

// CSVStore persists the trade log as a flat CSV file. Not-yet-populated
// exit fields are written as "" (never a NaN literal). A sidecar .lock file
// held for the whole Update cycle serializes read-modify-write across
// processes.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// NewCSVStore creates the store, making the parent directory if needed.
func NewCSVStore(path string) (*CSVStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	return &CSVStore{path: path}, nil
}

// Load reads the whole log. A missing file is an empty log. A file that
// fails to parse is treated as empty with a warning rather than aborting
// the run; individual bad rows are skipped the same way.
func (s *CSVStore) Load() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Update runs one read-modify-write cycle under the lock file, so a
// concurrent process cannot load between this process's load and save and
// have its entries overwritten.
func (s *CSVStore) Update(fn func(entries []Entry) ([]Entry, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer release()

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

// Save replaces the whole log. Use Update for anything that derives the new
// log from the current one.
func (s *CSVStore) Save(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	release, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer release()

	return s.save(entries)
}

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) load() ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read trade log: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		log.Printf("[WARN] trade log %s unparseable, starting empty: %v", s.path, err)
		return nil, nil
	}
	if len(records) <= 1 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(records)-1)
	for i, rec := range records[1:] {
		e, err := parseRow(rec)
		if err != nil {
			log.Printf("[WARN] trade log %s row %d skipped: %v", s.path, i+2, err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// save writes atomically via tmp file and rename. Callers hold the lock.
func (s *CSVStore) save(entries []Entry) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create trade log: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range entries {
		if err := w.Write(formatRow(e)); err != nil {
			f.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush trade log: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close trade log: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace trade log: %w", err)
	}
	return nil
}

// acquireLock creates the sidecar lock file exclusively, retrying until
// the deadline.
func (s *CSVStore) acquireLock() (func(), error) {
	lockPath := s.path + ".lock"
	deadline := time.Now().Add(10 * time.Second)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() {
				if rmErr := os.Remove(lockPath); rmErr != nil {
					log.Printf("[WARN] remove lock file: %v", rmErr)
				}
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire trade log lock: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("trade log lock %s held too long", lockPath)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func formatRow(e Entry) []string {
	row := []string{
		e.LoggedAt.UTC().Format(TimeLayout),
		e.Asset,
		e.Ticker,
		e.SignalDate,
		string(e.Direction),
		strconv.FormatFloat(e.EntryClose, 'f', 6, 64),
		strconv.Itoa(e.HorizonDays),
		boolToFlag(e.Evaluated),
		"", "", "", "",
	}
	if e.Evaluated {
		row[8] = e.ExitDate
		row[9] = strconv.FormatFloat(e.ExitClose, 'f', 6, 64)
		row[10] = strconv.FormatFloat(e.Return, 'f', 6, 64)
		row[11] = boolToFlag(e.Correct)
	}
	return row
}

func parseRow(rec []string) (Entry, error) {
	if len(rec) < len(csvHeader) {
		return Entry{}, fmt.Errorf("want %d fields, got %d", len(csvHeader), len(rec))
	}

	loggedAt, err := time.ParseInLocation(TimeLayout, rec[0], time.UTC)
	if err != nil {
		return Entry{}, fmt.Errorf("time_utc: %w", err)
	}
	entryClose, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("entry_close: %w", err)
	}
	horizon, err := strconv.Atoi(rec[6])
	if err != nil {
		return Entry{}, fmt.Errorf("horizon_days: %w", err)
	}

	e := Entry{
		LoggedAt:    loggedAt,
		Asset:       rec[1],
		Ticker:      rec[2],
		SignalDate:  rec[3],
		Direction:   model.Action(rec[4]),
		EntryClose:  entryClose,
		HorizonDays: horizon,
		Evaluated:   rec[7] == "1",
	}
	if e.Evaluated {
		e.ExitDate = rec[8]
		if e.ExitClose, err = strconv.ParseFloat(rec[9], 64); err != nil {
			return Entry{}, fmt.Errorf("exit_close: %w", err)
		}
		if e.Return, err = strconv.ParseFloat(rec[10], 64); err != nil {
			return Entry{}, fmt.Errorf("return: %w", err)
		}
		e.Correct = rec[11] == "1"
	}
	return e, nil
}

func boolToFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
