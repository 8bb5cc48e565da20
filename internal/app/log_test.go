package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTabHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		runID   string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			runID:   "run-123",
			level:   slog.LevelInfo,
			message: "found new file",
			want:    "2024-06-15T14:30:45Z\tINFO\trun-123\tfound new file\n",
		},
		{
			name:    "with record attrs",
			runID:   "run-789",
			level:   slog.LevelWarn,
			message: "file not imported",
			attrs:   []slog.Attr{slog.String("path", "ACTIVITY/A.FIT"), slog.Int("id", 42)},
			want:    "2024-06-15T14:30:45Z\tWARN\trun-789\tfile not imported\tpath=ACTIVITY/A.FIT\tid=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &tabHandler{w: &buf, runID: tt.runID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			r.AddAttrs(tt.attrs...)

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestTabHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &tabHandler{w: &buf, runID: "run-1", attrs: []slog.Attr{slog.String("a", "1")}}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "vault")}).(*tabHandler)
	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}

	r := slog.NewRecord(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), slog.LevelInfo, "upload", 0)
	r.AddAttrs(slog.String("key", "abc"))
	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	for _, want := range []string{"a=1", "component=vault", "key=abc"} {
		if !strings.Contains(got, want) {
			t.Errorf("output %q missing %s", got, want)
		}
	}
}

func TestTabHandler_Enabled(t *testing.T) {
	all := &tabHandler{}
	warn := &tabHandler{level: slog.LevelWarn}

	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !all.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) without level = false, want true", level)
		}
		if got, want := warn.Enabled(context.Background(), level), level >= slog.LevelWarn; got != want {
			t.Errorf("Enabled(%v) with warn level = %v, want %v", level, got, want)
		}
	}
}

func TestFanout(t *testing.T) {
	var file, stderr bytes.Buffer
	logger := slog.New(fanout{
		&tabHandler{w: &file, runID: "r"},
		&tabHandler{w: &stderr, runID: "r", level: slog.LevelWarn},
	})

	logger.Debug("parsing file", "id", 1)
	logger.Warn("mirroring device failed")

	if n := strings.Count(file.String(), "\n"); n != 2 {
		t.Errorf("file got %d lines, want 2:\n%s", n, file.String())
	}
	if strings.Contains(stderr.String(), "parsing file") {
		t.Errorf("stderr should not get debug records: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "mirroring device failed") {
		t.Errorf("stderr missing warning: %q", stderr.String())
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-run", slog.LevelError)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("hello")

	data, err := os.ReadFile(filepath.Join(dir, "fitlog.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "\ttest-run\thello") {
		t.Errorf("log file = %q, want the info line", data)
	}
}
