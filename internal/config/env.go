package config

import (
	"os"
	"strings"
)

// envPrefix is prepended to every environment variable name.
const envPrefix = "PLANCONV_"

// loadFromEnvWithSources overrides config from PLANCONV_* variables.
// Variables set from the .env file are attributed to SourceDotEnv.
func loadFromEnvWithSources(cfg *Config, sources map[string]ConfigSource, dotenv map[string]bool) {
	lookup := func(field string) (string, bool) {
		name := envPrefix + envName(field)
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return "", false
		}
		if sources != nil {
			if dotenv[name] {
				sources[field] = SourceDotEnv
			} else {
				sources[field] = SourceEnv
			}
		}
		return v, true
	}

	if v, ok := lookup("format"); ok {
		cfg.Format = v
	}
	if v, ok := lookup("encoding"); ok {
		cfg.Encoding = v
	}
	if v, ok := lookup("date_layout"); ok {
		cfg.DateLayout = v
	}
	if v, ok := lookup("schema_file"); ok {
		cfg.SchemaFile = v
	}
	if v, ok := lookup("validate"); ok {
		cfg.Validate = boolFromString(v)
	}
	if v, ok := lookup("log_dir"); ok {
		cfg.LogDir = v
	}
	if v, ok := lookup("log_level"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("log_format"); ok {
		cfg.LogFormat = v
	}
	if v, ok := lookup("log_timestamps"); ok {
		cfg.LogTimestamps = boolFromString(v)
	}
	if v, ok := lookup("log_caller"); ok {
		cfg.LogCaller = boolFromString(v)
	}
}

// envName maps a config key to its variable suffix, e.g. log_dir -> LOG_DIR.
func envName(field string) string {
	return strings.ToUpper(field)
}
