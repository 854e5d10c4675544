package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/spiffcs/stalemate/internal/format"
	"github.com/spiffcs/stalemate/internal/history"
	"github.com/spiffcs/stalemate/internal/model"
)

var stats = []model.Statistics{
	{Project: "acme/widgets", Language: "Go", Stars: 120, Age: 30, Pulls: 10, Open: 2, Closed: 3, Merged: 5, Staled: 6, StaleClosed: 2},
	{Project: "acme/a-very-long-repository-name-that-overflows", Language: "TypeScript", Pulls: 4, Merged: 4},
}

func noLinks() *bool {
	b := false
	return &b
}

func TestTableFormatter(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var buf bytes.Buffer
	if err := (&TableFormatter{Links: noLinks()}).Format(stats, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	lines := strings.Split(out, "\n")

	// Every table row lines up with the header.
	width := format.DisplayWidth(lines[0])
	for i, line := range lines[2:4] {
		if got := format.DisplayWidth(line); got != width {
			t.Errorf("row %d width = %d, want %d:\n%s", i, got, width, out)
		}
	}

	for _, want := range []string{"acme/widgets", "2.5y", "60%", "acme/a-very-long-repository-n...", "14 pull requests", "6 staled (42%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestTableFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(nil, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No project statistics") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestTableFormatterLinks(t *testing.T) {
	links := true
	var buf bytes.Buffer
	if err := (&TableFormatter{Links: &links}).Format(stats[:1], &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "https://github.com/acme/widgets") {
		t.Error("expected a hyperlink to the repository")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).Format(stats, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var got JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := Totals{Projects: 2, Pulls: 14, Open: 2, Closed: 3, Merged: 9, Staled: 6, StaleClosed: 2}
	if diff := cmp.Diff(want, got.Totals); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}
	if len(got.Projects) != 2 || got.Projects[1].Language != "TypeScript" {
		t.Errorf("unexpected projects %+v", got.Projects)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"markdown", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFormatHistory(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	runs := []history.Run{
		{Stage: "process", Processed: 3, Outcome: history.OutcomeComplete},
		{Stage: "features", Forced: true, Outcome: history.OutcomeFailed, Error: "features acme/widgets: boom"},
	}
	var buf bytes.Buffer
	if err := FormatHistory(runs, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"process", "complete", "features (f)", "failed", "boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := FormatHistory(nil, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No stage runs") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
