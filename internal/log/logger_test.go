package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestVerbosityLevels(t *testing.T) {
	tests := []struct {
		level int
		want  []string
		hide  []string
	}{
		{LevelQuiet, []string{"msg=warn", "msg=error"}, []string{"msg=info", "msg=debug", "msg=trace"}},
		{LevelInfo, []string{"msg=info", "msg=warn"}, []string{"msg=debug", "msg=trace"}},
		{LevelDebug, []string{"msg=info", "msg=debug"}, []string{"msg=trace"}},
		{LevelTrace, []string{"msg=debug", "msg=trace"}, nil},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		Initialize(tt.level, &buf)

		Info("info")
		Debug("debug")
		Trace("trace")
		Warn("warn")
		Error("error")

		out := buf.String()
		for _, w := range tt.want {
			if !strings.Contains(out, w) {
				t.Errorf("level %d: expected %q in:\n%s", tt.level, w, out)
			}
		}
		for _, h := range tt.hide {
			if strings.Contains(out, h) {
				t.Errorf("level %d: unexpected %q in:\n%s", tt.level, h, out)
			}
		}
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelQuiet, &buf)
	Progress("features: %d/%d projects", 1, 2)
	if buf.Len() != 0 {
		t.Errorf("progress should be hidden when quiet, got %q", buf.String())
	}

	Initialize(LevelInfo, &buf)
	Progress("features: %d/%d projects", 1, 2)
	Warn("missing patches")
	out := buf.String()
	// A log line never lands on the same line as the progress.
	if !strings.Contains(out, "\rfeatures: 1/2 projects\n") {
		t.Errorf("progress line not terminated before the warning: %q", out)
	}

	buf.Reset()
	Progress("features: %d/%d projects", 2, 2)
	ProgressClear()
	if !strings.HasSuffix(buf.String(), "\r\033[K") {
		t.Errorf("ProgressClear() should erase the line, got %q", buf.String())
	}
}

func TestStageLogger(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	s := Stage("features", "acme/widgets")
	s.Skip()
	s.Warn("no patches recorded")
	s.Done("pulls", 3)

	out := buf.String()
	for _, want := range []string{"stage=features", "project=acme/widgets", "skipping", "no patches recorded", "pulls=3", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "stage started") {
		t.Error("stage start is a debug line")
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Progress("working %d", i)
			Info("tick", "worker", i)
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "msg=tick"); got != 8 {
		t.Errorf("expected 8 log lines, got %d", got)
	}
}
