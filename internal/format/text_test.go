package format

import (
	"testing"
)

func TestStripAnsi(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no ansi", "hello", "hello"},
		{"single color", "\x1b[31mred\x1b[0m", "red"},
		{"multiple colors", "\x1b[31mred\x1b[0m \x1b[32mgreen\x1b[0m", "red green"},
		{"complex", "\x1b[1;31;40mbold red on black\x1b[0m", "bold red on black"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripAnsi(tt.input); got != tt.expected {
				t.Errorf("StripAnsi(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDisplayWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{"empty", "", 0},
		{"ascii", "hello", 5},
		{"with ansi", "\x1b[31mred\x1b[0m", 3},
		{"wide chars", "日本語", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayWidth(tt.input); got != tt.expected {
				t.Errorf("DisplayWidth(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("acme/widgets", 20); got != "acme/widgets" {
		t.Errorf("short text changed: %q", got)
	}
	got := Truncate("kubernetes/kubernetes", 12)
	if got != "kubernete..." {
		t.Errorf("Truncate() = %q", got)
	}
}

func TestPad(t *testing.T) {
	red := "\x1b[31m42\x1b[0m"
	if got := DisplayWidth(PadRight(red, 5)); got != 5 {
		t.Errorf("PadRight width = %d, want 5", got)
	}
	if got := PadLeft("42", 5); got != "   42" {
		t.Errorf("PadLeft() = %q", got)
	}
	if got := PadLeft("toolong", 3); got != "toolong" {
		t.Errorf("PadLeft() should not cut, got %q", got)
	}
}

func TestMonths(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "-"},
		{0.5, "0.5mo"},
		{14.2, "14mo"},
		{36, "3.0y"},
	}
	for _, tt := range tests {
		if got := Months(tt.in); got != tt.want {
			t.Errorf("Months(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(1, 4); got != "25%" {
		t.Errorf("Percent(1, 4) = %q", got)
	}
	if got := Percent(1, 0); got != "-" {
		t.Errorf("Percent(1, 0) = %q", got)
	}
}
