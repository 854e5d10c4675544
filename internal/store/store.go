// Package store persists the per project tables of the pipeline as CSV
// files laid out as <data dir>/<table>/<owner>/<repo>.csv.
package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spiffcs/stalemate/internal/log"
)

const ext = ".csv"

// ErrNotFound is returned when a table has no file for a project.
var ErrNotFound = errors.New("table not found")

// Store reads and writes project tables below a data directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file of a project table.
func (s *Store) Path(table, project string) string {
	return filepath.Join(s.dir, table, filepath.FromSlash(project)+ext)
}

// Exists reports whether a project table has been written.
func (s *Store) Exists(table, project string) bool {
	info, err := os.Stat(s.Path(table, project))
	return err == nil && !info.IsDir()
}

// Projects lists the projects that have a file in table, sorted.
func (s *Store) Projects(table string) ([]string, error) {
	root := filepath.Join(s.dir, table)
	var projects []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ext || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		projects = append(projects, strings.TrimSuffix(filepath.ToSlash(rel), ext))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", table, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	sort.Strings(projects)
	return projects, nil
}

// Remove deletes a project table, ignoring missing files.
func (s *Store) Remove(table, project string) error {
	err := os.Remove(s.Path(table, project))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// write writes a table atomically: records go to a temporary file that is
// renamed into place only when the context is still live, so an
// interrupted write never leaves a partial table behind.
func (s *Store) write(ctx context.Context, table, project string, header []string, records func(yield func([]string) error) error) error {
	path := s.Path(table, project)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := f.Name()
	discard := func(err error) error {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return discard(err)
	}
	if err := records(w.Write); err != nil {
		return discard(err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return discard(err)
	}
	if err := ctx.Err(); err != nil {
		return discard(err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	log.Trace("wrote table", "table", table, "project", project, "path", path)
	return nil
}

// read loads a table and calls fn for each record.
func (s *Store) read(table, project string, fn func(r *record) error) error {
	path := s.Path(table, project)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s for %s: %w", table, project, ErrNotFound)
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	cr := csv.NewReader(f)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	r := &record{path: path, columns: make(map[string]int, len(header))}
	for i, name := range header {
		r.columns[name] = i
	}

	for {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		r.line++
		r.values = values
		r.err = nil
		if err := fn(r); err != nil {
			return err
		}
		if r.err != nil {
			return r.err
		}
	}
}

// record gives typed access to the columns of the current CSV row. The
// first conversion error is kept and reported after the row is handled.
type record struct {
	path    string
	columns map[string]int
	values  []string
	line    int
	err     error
}

func (r *record) str(col string) string {
	i, ok := r.columns[col]
	if !ok || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

func (r *record) fail(col string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s:%d: column %s: %w", r.path, r.line+1, col, err)
	}
}

func (r *record) int(col string) int {
	v := r.str(col)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Integer columns written through a float pipeline.
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil {
			r.fail(col, err)
			return 0
		}
		return int(f)
	}
	return n
}

func (r *record) float(col string) float64 {
	v := r.str(col)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(col, err)
	}
	return f
}

func (r *record) bool(col string) bool {
	v := r.str(col)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.fail(col, err)
	}
	return b
}

func (r *record) time(col string) time.Time {
	v := r.str(col)
	if v == "" {
		return time.Time{}
	}
	t, err := ParseTime(v)
	if err != nil {
		r.fail(col, err)
	}
	return t
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp layouts found in event archives. Times
// without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
