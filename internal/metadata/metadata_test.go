package metadata

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/stalemate/internal/model"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPutGet(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	want := model.Metadata{
		Project:   "acme/widgets",
		CreatedAt: time.Date(2015, 2, 3, 4, 5, 6, 0, time.UTC),
		Language:  "Go",
		Watchers:  120,
		Fork:      true,
	}
	if err := db.Put(ctx, want); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := db.Get(ctx, "acme/widgets")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("metadata mismatch (-want +got):\n%s", diff)
	}

	want.Watchers = 130
	want.Archived = true
	if err := db.Put(ctx, want); err != nil {
		t.Fatalf("Put() update error = %v", err)
	}
	got, _ = db.Get(ctx, "acme/widgets")
	if got.Watchers != 130 || !got.Archived {
		t.Errorf("Put() did not update, got %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	db := openTest(t)
	if _, err := db.Get(context.Background(), "acme/none"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	ok, err := db.Has(context.Background(), "acme/none")
	if err != nil || ok {
		t.Errorf("Has() = %v, %v, want false", ok, err)
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)
	for _, p := range []string{"zeta/app", "acme/widgets"} {
		if err := db.Put(ctx, model.Metadata{Project: p}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, m := range all {
		names = append(names, m.Project)
		if !m.CreatedAt.IsZero() {
			t.Errorf("%s: CreatedAt = %v, want zero", m.Project, m.CreatedAt)
		}
	}
	if diff := cmp.Diff([]string{"acme/widgets", "zeta/app"}, names); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}
