// Package history records one entry per pipeline stage run as JSON Lines.
package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/spiffcs/stalemate/internal/log"
)

// FileName is the history file inside the data directory.
const FileName = "runs.jsonl"

// maxRecords is the maximum number of runs retained.
const maxRecords = 1000

// Outcome is how a stage run ended.
type Outcome string

const (
	OutcomeComplete    Outcome = "complete"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Run describes one stage run.
type Run struct {
	Started   time.Time     `json:"ts"`
	Stage     string        `json:"stage"`
	Forced    bool          `json:"forced,omitempty"`
	Projects  int           `json:"projects"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Duration  time.Duration `json:"duration"`
	Outcome   Outcome       `json:"outcome"`
	Error     string        `json:"error,omitempty"`
}

// Store persists runs as JSON Lines.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Append adds a run and prunes to the last maxRecords entries.
func (s *Store) Append(run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		log.Debug("could not read run history, starting fresh", "error", err)
		records = nil
	}

	records = append(records, run)
	if len(records) > maxRecords {
		records = records[len(records)-maxRecords:]
	}
	return s.writeAll(records)
}

// Recent returns the last n runs (or fewer if not enough exist).
func (s *Store) Recent(n int) []Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil
	}
	if len(records) <= n {
		return records
	}
	return records[len(records)-n:]
}

func (s *Store) readAll() ([]Run, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []Run
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var run Run
		if err := json.Unmarshal(line, &run); err != nil {
			continue // skip malformed lines
		}
		records = append(records, run)
	}
	return records, scanner.Err()
}

// writeAll replaces the file atomically.
func (s *Store) writeAll(records []Run) error {
	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}
