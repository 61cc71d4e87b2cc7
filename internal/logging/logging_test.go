package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// TestNewRunLogger tests creating a new run logger.
func TestNewRunLogger(t *testing.T) {
	t.Run("successful creation with valid paths", func(t *testing.T) {
		logger, err := NewRunLogger(t.TempDir(), t.TempDir())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer logger.Close()

		if logger.Dir == "" || logger.RunID == "" || logger.LogPath == "" {
			t.Errorf("expected fields to be set: %+v", logger)
		}
		if _, err := os.Stat(logger.LogPath); err != nil {
			t.Errorf("log file not created: %v", err)
		}
	})

	t.Run("empty base dir returns error", func(t *testing.T) {
		_, err := NewRunLogger("", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "empty") {
			t.Fatalf("expected empty dir error, got %v", err)
		}
	})

	t.Run("creates log directory if missing", func(t *testing.T) {
		newLogDir := filepath.Join(t.TempDir(), "new-logs", "nested")
		logger, err := NewRunLogger(newLogDir, t.TempDir())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(newLogDir); err != nil {
			t.Errorf("log directory not created: %v", err)
		}
	})

	t.Run("log directory includes work dir slug", func(t *testing.T) {
		workDir := filepath.Join(t.TempDir(), "my plan")
		if err := os.Mkdir(workDir, 0755); err != nil {
			t.Fatal(err)
		}
		logger, err := NewRunLogger(t.TempDir(), workDir)
		if err != nil {
			t.Fatal(err)
		}
		defer logger.Close()

		if !strings.HasPrefix(filepath.Base(logger.Dir), "my_plan-") {
			t.Errorf("unexpected log dir %s", logger.Dir)
		}
	})
}

// TestRunLoggerLog tests writing events.
func TestRunLoggerLog(t *testing.T) {
	logger, err := NewRunLogger(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	events := []Event{
		{Type: EventRead, Input: "plan.xml", Format: "mspdi", Tasks: 3},
		{Type: EventNormalize, Tasks: 2, Warnings: []string{"task 4: predecessor 1 has no resolvable target"}},
		{Type: EventWrite, Output: "plan.json", Tasks: 2},
	}
	for _, ev := range events {
		if err := logger.Log(ev); err != nil {
			t.Fatalf("Log: %v", err)
		}
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadEvents(logger.LogPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Input != "plan.xml" || got[0].Format != "mspdi" {
		t.Errorf("unexpected first event: %+v", got[0])
	}
	if got[0].Timestamp.IsZero() {
		t.Error("timestamp not filled in")
	}
	if len(got[1].Warnings) != 1 {
		t.Errorf("warnings lost: %+v", got[1])
	}

	var nilLogger *RunLogger
	if err := nilLogger.Log(Event{Type: EventRead}); err != nil {
		t.Errorf("nil logger should discard events, got %v", err)
	}
}

// TestRunLoggerClose tests closing the logger.
func TestRunLoggerClose(t *testing.T) {
	t.Run("close nil logger", func(t *testing.T) {
		var logger *RunLogger
		if err := logger.Close(); err != nil {
			t.Errorf("close nil logger failed: %v", err)
		}
	})

	t.Run("close logger with nil file", func(t *testing.T) {
		logger := &RunLogger{file: nil}
		if err := logger.Close(); err != nil {
			t.Errorf("close logger with nil file failed: %v", err)
		}
	})
}

// TestSlugify tests the slugify helper.
func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"with spaces", "with_spaces"},
		{"a//b!!c", "a_b_c"},
		{"  ", "project"},
		{"!!!", "project"},
		{".", "project"},
		{"v1.2-final", "v1.2-final"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := slugify(tt.input); got != tt.want {
				t.Errorf("slugify(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestHashPath tests the hash helper.
func TestHashPath(t *testing.T) {
	a := hashPath("/a/b")
	if len(a) != 8 {
		t.Errorf("expected 8-char hash, got %q", a)
	}
	if a != hashPath("/a/b") {
		t.Error("hash should be stable")
	}
	if a == hashPath("/a/c") {
		t.Error("different paths should hash differently")
	}
}

// TestFindLogDir tests resolving the log directory.
func TestFindLogDir(t *testing.T) {
	base := t.TempDir()
	logDir, err := FindLogDir(base, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(logDir, base) {
		t.Errorf("log directory %s should be under %s", logDir, base)
	}

	work := t.TempDir()
	rel, err := FindLogDir("logs", work)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(rel, filepath.Join(work, "logs")) {
		t.Errorf("relative base should resolve against work dir, got %s", rel)
	}

	if _, err := FindLogDir("", work); err == nil {
		t.Error("expected error for empty base dir")
	}
}

// TestFindLatestLog tests finding the latest log file.
func TestFindLatestLog(t *testing.T) {
	t.Run("finds newest jsonl file", func(t *testing.T) {
		logDir := t.TempDir()
		old := time.Now().Add(-time.Hour)
		for i, name := range []string{"a.jsonl", "b.jsonl", "c.txt"} {
			path := filepath.Join(logDir, name)
			if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
				t.Fatal(err)
			}
			mod := old.Add(time.Duration(i) * time.Minute)
			if err := os.Chtimes(path, mod, mod); err != nil {
				t.Fatal(err)
			}
		}

		latest, err := FindLatestLog(logDir)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(latest) != "b.jsonl" {
			t.Errorf("expected b.jsonl, got %s", latest)
		}
	})

	t.Run("returns empty for non-existent directory", func(t *testing.T) {
		latest, err := FindLatestLog(filepath.Join(t.TempDir(), "missing"))
		if err != nil || latest != "" {
			t.Errorf("expected empty result, got %q, %v", latest, err)
		}
	})

	t.Run("returns empty for empty directory", func(t *testing.T) {
		latest, err := FindLatestLog(t.TempDir())
		if err != nil || latest != "" {
			t.Errorf("expected empty result, got %q, %v", latest, err)
		}
	})
}

// TestFindLogRuns tests listing and summarizing runs.
func TestFindLogRuns(t *testing.T) {
	logDir := t.TempDir()
	write := func(name string, mod time.Time, lines ...string) {
		path := filepath.Join(logDir, name)
		if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Now()
	write("20240101-120000-1.jsonl", now.Add(-2*time.Minute),
		`{"type":"read","input":"a.xml","tasks":3}`,
		`{"type":"write","output":"a.json","tasks":2}`)
	write("20240101-120100-2.jsonl", now.Add(-time.Minute),
		`{"type":"read","input":"b.mpx"}`,
		`not json`,
		`{"type":"error","error":"boom"}`)
	write("notes.txt", now, "ignored")

	runs, err := FindLogRuns(logDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].RunID != "20240101-120100-2" || runs[0].Status != EventError || runs[0].Input != "b.mpx" {
		t.Errorf("unexpected newest run: %+v", runs[0])
	}
	if runs[0].Events != 2 {
		t.Errorf("malformed lines should be skipped, got %d events", runs[0].Events)
	}
	if runs[1].Status != EventWrite || runs[1].Output != "a.json" {
		t.Errorf("unexpected older run: %+v", runs[1])
	}

	if _, err := FindLogRuns(filepath.Join(logDir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

// TestTailLog tests tailing log files.
func TestTailLog(t *testing.T) {
	ctx := context.Background()

	t.Run("whole file when n=0", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")
		content := "line1\nline2\nline3\n"
		if err := os.WriteFile(logFile, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := TailLog(ctx, &buf, logFile, 0, false); err != nil {
			t.Fatal(err)
		}
		if buf.String() != content {
			t.Errorf("got %q, want %q", buf.String(), content)
		}
	})

	t.Run("last n lines", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")
		if err := os.WriteFile(logFile, []byte("line1\nline2\nline3\nline4\nline5\n"), 0644); err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := TailLog(ctx, &buf, logFile, 2, false); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "line4\nline5\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("n larger than file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "test.log")
		if err := os.WriteFile(logFile, []byte("only\n"), 0644); err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := TailLog(ctx, &buf, logFile, 10, false); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "only\n" {
			t.Errorf("got %q", buf.String())
		}
	})

	t.Run("error for non-existent file", func(t *testing.T) {
		var buf bytes.Buffer
		if err := TailLog(ctx, &buf, filepath.Join(t.TempDir(), "nope.log"), 0, false); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("follow until canceled", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("skipping follow test on Windows due to file locking issues")
		}

		logFile := filepath.Join(t.TempDir(), "test.log")
		if err := os.WriteFile(logFile, []byte("initial\n"), 0644); err != nil {
			t.Fatal(err)
		}

		followCtx, cancel := context.WithCancel(ctx)
		out := &syncBuffer{}
		done := make(chan error, 1)
		go func() {
			done <- TailLog(followCtx, out, logFile, 0, true)
		}()

		time.Sleep(50 * time.Millisecond)
		f, err := os.OpenFile(logFile, os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.WriteString("appended\n"); err != nil {
			t.Fatal(err)
		}
		f.Close()

		deadline := time.Now().Add(2 * time.Second)
		for !strings.Contains(out.String(), "appended") && time.Now().Before(deadline) {
			time.Sleep(20 * time.Millisecond)
		}
		cancel()
		if err := <-done; err != nil {
			t.Fatalf("TailLog: %v", err)
		}

		got := out.String()
		if !strings.Contains(got, "initial") || !strings.Contains(got, "appended") {
			t.Errorf("unexpected follow output %q", got)
		}
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestConsole tests the console logger helpers.
func TestConsole(t *testing.T) {
	levels := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		"error":   log.ErrorLevel,
		"bogus":   log.ErrorLevel,
	}
	for in, want := range levels {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if ParseLogFormatter("json") != log.JSONFormatter || ParseLogFormatter("logfmt") != log.LogfmtFormatter ||
		ParseLogFormatter("") != log.TextFormatter {
		t.Error("ParseLogFormatter mapping is wrong")
	}

	var buf bytes.Buffer
	logger := NewConsoleFromConfig(&buf, "error", "text", false, false)
	logger.Warn("hidden")
	logger.Error("shown", "task", 4)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("warn should be filtered at error level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "task=4") {
		t.Errorf("unexpected console output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("non-terminal output should not contain escape codes: %q", out)
	}
}
