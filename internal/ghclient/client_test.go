package ghclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestSplitProject(t *testing.T) {
	tests := []struct {
		in      string
		owner   string
		repo    string
		wantErr bool
	}{
		{in: "acme/widgets", owner: "acme", repo: "widgets"},
		{in: "acme", wantErr: true},
		{in: "/widgets", wantErr: true},
		{in: "acme/widgets/extra", wantErr: true},
	}
	for _, tt := range tests {
		owner, repo, err := SplitProject(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("SplitProject(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if owner != tt.owner || repo != tt.repo {
			t.Errorf("SplitProject(%q) = %q, %q", tt.in, owner, repo)
		}
	}
}

func TestFetchMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widgets" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-RateLimit-Remaining", "4999")
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		_, _ = w.Write([]byte(`{
			"full_name": "acme/widgets",
			"created_at": "2016-05-01T10:00:00Z",
			"language": "Go",
			"watchers_count": 321,
			"archived": true,
			"fork": false
		}`))
	}))
	defer srv.Close()

	c, err := NewClientWithBaseURL(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	m, err := c.FetchMetadata(context.Background(), "acme/widgets")
	if err != nil {
		t.Fatalf("FetchMetadata() error = %v", err)
	}
	if m.Project != "acme/widgets" || m.Language != "Go" || m.Watchers != 321 || !m.Archived || m.Fork {
		t.Errorf("FetchMetadata() = %+v", m)
	}
	if want := time.Date(2016, 5, 1, 10, 0, 0, 0, time.UTC); !m.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, want)
	}

	remaining, limit, _, limited := c.RateLimits().Status()
	if remaining != 4999 || limit != 5000 || limited {
		t.Errorf("Status() = %d/%d limited=%v", remaining, limit, limited)
	}

	if _, err := c.FetchMetadata(context.Background(), "acme/missing"); err == nil {
		t.Error("FetchMetadata(missing) should fail")
	}
}

func TestFetchMetadataRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Limit", "5000")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewClientWithBaseURL(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.FetchMetadata(context.Background(), "acme/widgets")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("FetchMetadata() error = %v, want ErrRateLimited", err)
	}
}

func TestFetchQuotas(t *testing.T) {
	reset := time.Now().Add(30 * time.Minute).Unix()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rate_limit" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"resources": {
			"core": {"limit": 5000, "remaining": 4321, "reset": ` + strconv.FormatInt(reset, 10) + `},
			"search": {"limit": 30, "remaining": 30, "reset": ` + strconv.FormatInt(reset, 10) + `}
		}}`))
	}))
	defer srv.Close()

	c, err := NewClientWithBaseURL(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	quotas, err := c.FetchQuotas(context.Background())
	if err != nil {
		t.Fatalf("FetchQuotas() error = %v", err)
	}
	if len(quotas) != 2 {
		t.Fatalf("expected 2 quotas, got %d", len(quotas))
	}
	if quotas[0].Name != "Core API" || quotas[0].Remaining != 4321 || quotas[0].Limit != 5000 {
		t.Errorf("unexpected core quota %+v", quotas[0])
	}
	if quotas[0].Reset.Unix() != reset {
		t.Errorf("Reset = %v, want %v", quotas[0].Reset.Unix(), reset)
	}
}
