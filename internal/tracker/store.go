package tracker

import "errors"

// ErrNoChange may be returned by an Update closure to signal that the log
// is unmodified; the store then skips the write.
var ErrNoChange = errors.New("trade log unchanged")

// Store persists the trade log. All mutation goes through Update, which
// runs the whole read-modify-write cycle under the store's cross-process
// exclusion: load everything, apply fn, save everything back. This is not
// a high-throughput store; the single cycle keeps the key-uniqueness
// invariant simple across backends.
type Store interface {
	Load() ([]Entry, error)
	// Update loads the log, applies fn, and persists fn's result, all
	// while holding the store's exclusion. fn returns the full new log.
	Update(fn func(entries []Entry) ([]Entry, error)) error
	Close() error
}
