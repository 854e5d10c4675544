package store

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/spiffcs/stalemate/internal/model"
)

var statisticsHeader = []string{
	"project", "language", "stars", "age", "contributors", "maintainers",
	"pulls", "open", "closed", "merged",
	"staled", "staled+", "stale_closed", "stale_closed+",
}

// StatisticsLog appends one summary row per postprocessed project.
type StatisticsLog struct {
	path string
	mu   sync.Mutex
}

// NewStatisticsLog returns a log writing to path.
func NewStatisticsLog(path string) *StatisticsLog {
	return &StatisticsLog{path: path}
}

// Path returns the file the log writes to.
func (l *StatisticsLog) Path() string {
	return l.path
}

// Reset truncates the log.
func (l *StatisticsLog) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := os.Remove(l.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Append adds a row, writing the header first when the file is new.
func (l *StatisticsLog) Append(s model.Statistics) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return err
	}
	info, statErr := os.Stat(l.path)
	fresh := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(statisticsHeader); err != nil {
			_ = f.Close()
			return err
		}
	}
	values := []string{
		s.Project, s.Language, formatInt(s.Stars), formatFloat(s.Age),
		formatInt(s.Contributors), formatInt(s.Maintainers),
		formatInt(s.Pulls), formatInt(s.Open), formatInt(s.Closed), formatInt(s.Merged),
		formatInt(s.Staled), formatInt(s.StaledMerged), formatInt(s.StaleClosed), formatInt(s.StaleClosedMerged),
	}
	if err := w.Write(values); err != nil {
		_ = f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadAll returns every recorded row in append order.
func (l *StatisticsLog) ReadAll() ([]model.Statistics, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r := &record{path: l.path, columns: make(map[string]int, len(header))}
	for i, name := range header {
		r.columns[name] = i
	}

	var stats []model.Statistics
	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		r.line++
		r.values = values
		stats = append(stats, model.Statistics{
			Project:           r.str("project"),
			Language:          r.str("language"),
			Stars:             r.int("stars"),
			Age:               r.float("age"),
			Contributors:      r.int("contributors"),
			Maintainers:       r.int("maintainers"),
			Pulls:             r.int("pulls"),
			Open:              r.int("open"),
			Closed:            r.int("closed"),
			Merged:            r.int("merged"),
			Staled:            r.int("staled"),
			StaledMerged:      r.int("staled+"),
			StaleClosed:       r.int("stale_closed"),
			StaleClosedMerged: r.int("stale_closed+"),
		})
		if r.err != nil {
			return nil, r.err
		}
	}
	return stats, nil
}
