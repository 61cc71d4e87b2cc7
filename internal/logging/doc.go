// Package logging provides console logging and per-run JSONL event logs.
//
// The console logger writes leveled output to stderr through
// charmbracelet/log. When a log directory is configured, every conversion
// also appends one JSON event per pipeline stage to
// <log_dir>/<slug>/<run-id>.jsonl, where slug identifies the working
// directory. FindLogRuns, FindLatestLog and TailLog read those files back.
package logging
