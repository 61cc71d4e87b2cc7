package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/trabalhosfenix/planconv/internal/utils"
)

// ArgsCheck validates the positional arguments left after flag parsing.
type ArgsCheck func(args []string) error

// LoadWithSources loads configuration from all sources in priority order and
// tracks the source of each value. Flags are registered on fs and parsed from
// args first; they and the positional arguments (fs.Args(), checked by
// checks) are rejected with a *FlagError before any file is read.
func LoadWithSources(fs *flag.FlagSet, args []string, checks ...ArgsCheck) (*ConfigWithSources, error) {
	if fs == nil {
		fs = flag.NewFlagSet(appName, flag.ContinueOnError)
	}
	flagValues, err := parseFlags(fs, args)
	if err != nil {
		return nil, err
	}
	for _, check := range checks {
		if err := check(fs.Args()); err != nil {
			return nil, &FlagError{Err: err}
		}
	}

	sources := make(map[string]ConfigSource)
	cfg := &Config{}

	// 1. Defaults
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	// 2. User config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFileWithSources(cfg, path, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
		cfg.UserFile = path
	}

	// 3. Project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFileWithSources(cfg, path, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
		cfg.ProjectFile = path
	}

	// 4. .env file, applied to the process environment
	dotenvKeys, err := loadDotEnv()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dotEnvFileName, err)
	}
	if len(dotenvKeys) > 0 {
		cfg.DotEnvFile = dotEnvFileName
	}

	// 5. Environment
	loadFromEnvWithSources(cfg, sources, dotenvKeys)

	// 6. CLI flags
	if err := applyFlags(cfg, flagValues, sources); err != nil {
		return nil, err
	}

	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
	}, nil
}

// loadConfigFileWithSources decodes a TOML file over cfg. Only keys present
// in the file change cfg and are attributed to source.
func loadConfigFileWithSources(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, field := range configFields() {
		if md.IsDefined(field) {
			sources[field] = source
		}
	}
	return nil
}

// loadDotEnv copies variables from ./.env into the process environment
// without replacing variables that are already set. It returns the keys it set.
func loadDotEnv() (map[string]bool, error) {
	info, err := os.Stat(dotEnvFileName)
	if err != nil || info.IsDir() {
		return nil, nil
	}
	values, err := godotenv.Read(dotEnvFileName)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool)
	for key, value := range values {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return nil, err
		}
		applied[key] = true
	}
	return applied, nil
}

// finalizeConfig normalizes and checks values after all layers are applied.
func finalizeConfig(cfg *Config) error {
	format, ok := utils.NormalizeFormat(cfg.Format)
	if !ok {
		return fmt.Errorf("invalid format %q", cfg.Format)
	}
	cfg.Format = format

	if strings.TrimSpace(cfg.DateLayout) == "" {
		cfg.DateLayout = DefaultDateLayout
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	if !validLogFormats[cfg.LogFormat] {
		return fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.SchemaFile = expandPath(cfg.SchemaFile)
	return nil
}

var (
	validLogLevels  = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true}
	validLogFormats = map[string]bool{"text": true, "json": true, "logfmt": true}
)

// checkValue validates a single format or log setting.
func checkValue(key, value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	switch key {
	case "format":
		if _, ok := utils.NormalizeFormat(value); !ok {
			return fmt.Errorf("invalid format %q", value)
		}
	case "log_level":
		if !validLogLevels[value] {
			return fmt.Errorf("invalid log level %q", value)
		}
	case "log_format":
		if !validLogFormats[value] {
			return fmt.Errorf("invalid log format %q", value)
		}
	}
	return nil
}

// boolFromString parses a boolean from a string.
func boolFromString(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}
