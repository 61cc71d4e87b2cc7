package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
)

// FlagError reports a command line that could not be parsed.
type FlagError struct {
	Err error
}

func (e *FlagError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *FlagError) Unwrap() error {
	return e.Err
}

// flagKeys maps flag names to the config keys they set.
var flagKeys = map[string]string{
	"format":         "format",
	"encoding":       "encoding",
	"date-layout":    "date_layout",
	"schema":         "schema_file",
	"no-validate":    "validate",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags registers the global flags on fs and parses args. It returns
// the config flags given on the command line, by flag name.
func parseFlags(fs *flag.FlagSet, args []string) (map[string]string, error) {
	scratch := &Config{}
	setDefaults(scratch)
	var noValidate bool
	registerFlags(fs, scratch, &noValidate)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, &FlagError{Err: err}
	}

	values := make(map[string]string)
	var invalid error
	fs.Visit(func(f *flag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return
		}
		values[f.Name] = f.Value.String()
		if err := checkValue(key, f.Value.String()); err != nil && invalid == nil {
			invalid = fmt.Errorf("-%s: %w", f.Name, err)
		}
	})
	if invalid != nil {
		return nil, &FlagError{Err: invalid}
	}
	return values, nil
}

// applyFlags sets the parsed flag values over cfg and records them as SourceFlag.
func applyFlags(cfg *Config, values map[string]string, sources map[string]ConfigSource) error {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	var noValidate bool
	registerFlags(fs, cfg, &noValidate)

	for name, value := range values {
		if err := fs.Set(name, value); err != nil {
			return &FlagError{Err: err}
		}
		if name == "no-validate" {
			cfg.Validate = !noValidate
		}
		sources[flagKeys[name]] = SourceFlag
	}
	return nil
}

func registerFlags(fs *flag.FlagSet, cfg *Config, noValidate *bool) {
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Input format: auto, mspdi (xml) or mpx")
	fs.StringVar(&cfg.Encoding, "encoding", cfg.Encoding, "Character set override for MPX input, e.g. windows-1252")
	fs.StringVar(&cfg.DateLayout, "date-layout", cfg.DateLayout, "Go time layout for start and finish")
	fs.StringVar(&cfg.SchemaFile, "schema", cfg.SchemaFile, "JSON Schema used to validate the output (default: embedded)")
	fs.BoolVar(noValidate, "no-validate", !cfg.Validate, "Skip output validation")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Directory for per-run event logs (empty disables)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Console log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Console log format: text, json, logfmt")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in console logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller location in console logs")
}

// PrintFlagDefaults writes the global flags and their built-in defaults to w.
func PrintFlagDefaults(w io.Writer) {
	cfg := &Config{}
	setDefaults(cfg)
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	var noValidate bool
	registerFlags(fs, cfg, &noValidate)
	fs.SetOutput(w)
	fs.PrintDefaults()
}
