package config

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceDotEnv   ConfigSource = ".env file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// Default values.
const (
	DefaultFormat     = "auto"
	DefaultDateLayout = "2006-01-02T15:04:05"
	DefaultValidate   = true
	DefaultLogLevel   = "error"
	DefaultLogFormat  = "text"
)

// Config holds the full configuration for planconv.
type Config struct {
	// Input
	Format   string `toml:"format"`
	Encoding string `toml:"encoding"`

	// Output
	DateLayout string `toml:"date_layout"`
	SchemaFile string `toml:"schema_file"`
	Validate   bool   `toml:"validate"`

	// Logging configuration. An empty LogDir disables run logs.
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`

	// Files that contributed to this configuration (computed)
	UserFile    string `toml:"-"`
	ProjectFile string `toml:"-"`
	DotEnvFile  string `toml:"-"`
}

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
}

// configFields returns the configurable keys in display order.
func configFields() []string {
	return []string{
		"format",
		"encoding",
		"date_layout",
		"schema_file",
		"validate",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// Fields returns the configurable keys in display order.
func Fields() []string {
	return configFields()
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.Format = DefaultFormat
	cfg.DateLayout = DefaultDateLayout
	cfg.Validate = DefaultValidate
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
}

// Value returns the display value of a configuration key.
func (c *Config) Value(key string) string {
	switch key {
	case "format":
		return c.Format
	case "encoding":
		return c.Encoding
	case "date_layout":
		return c.DateLayout
	case "schema_file":
		return c.SchemaFile
	case "validate":
		return formatBool(c.Validate)
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return formatBool(c.LogTimestamps)
	case "log_caller":
		return formatBool(c.LogCaller)
	}
	return ""
}

// GetConfigFile returns the most specific config file that was loaded.
func (cws *ConfigWithSources) GetConfigFile() string {
	if cws.Config.ProjectFile != "" {
		return cws.Config.ProjectFile
	}
	return cws.Config.UserFile
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
