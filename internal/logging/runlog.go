package logging

import (
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogger appends the events of one conversion to its own JSONL file.
type RunLogger struct {
	Dir     string
	RunID   string
	LogPath string
	file    *os.File
}

// NewRunLogger opens <baseDir>/<slug>/<run-id>.jsonl for a run started in workDir.
func NewRunLogger(baseDir, workDir string) (*RunLogger, error) {
	dir, err := FindLogDir(baseDir, workDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	id := newRunID(time.Now())
	path := filepath.Join(dir, id+".jsonl")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	return &RunLogger{Dir: dir, RunID: id, LogPath: path, file: f}, nil
}

// Close is a no-op on a nil logger.
func (r *RunLogger) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}

// FindLogDir maps workDir to its log directory. A relative baseDir is taken
// relative to workDir.
func FindLogDir(baseDir, workDir string) (string, error) {
	if baseDir == "" {
		return "", errors.New("log base dir is empty")
	}
	if workDir == "" {
		workDir = "."
	}
	if abs, err := filepath.Abs(workDir); err == nil {
		workDir = abs
	}
	if !filepath.IsAbs(baseDir) {
		baseDir = filepath.Join(workDir, baseDir)
	}
	slug := slugify(filepath.Base(workDir)) + "-" + hashPath(workDir)
	return filepath.Join(filepath.Clean(baseDir), slug), nil
}

// slugify keeps ASCII letters, digits and ".-_", folding every other run of
// characters into one underscore.
func slugify(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return ' '
	}, name)
	slug := strings.Trim(strings.Join(strings.Fields(mapped), "_"), "_")
	if slug == "" || slug == "." || slug == ".." {
		return "project"
	}
	return slug
}

func hashPath(path string) string {
	h := fnv.New32a()
	h.Write([]byte(path))
	return fmt.Sprintf("%08x", h.Sum32())
}

// newRunID sorts by start time; the pid separates runs started in the same second.
func newRunID(now time.Time) string {
	return now.UTC().Format("20060102-150405") + "-" + fmt.Sprint(os.Getpid())
}
