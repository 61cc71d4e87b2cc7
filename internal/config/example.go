package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# planconv configuration file
# Values can be overridden by PLANCONV_* environment variables, a .env file or CLI flags

# Input format: auto, mspdi (Microsoft Project XML) or mpx
format = "auto"

# Character set for MPX input; empty uses the code page in the file header
# encoding = "windows-1252"

# Go time layout used for start and finish
date_layout = "2006-01-02T15:04:05"

# JSON Schema for the output; empty uses the embedded schema
# schema_file = "project.schema.json"

# Validate the document before writing it
validate = true

# Per-run event logs (supports ~ expansion and %VAR% on Windows); empty disables
# log_dir = "~/.planconv/runs"

# Console logging
log_level = "error"
log_format = "text"
log_timestamps = false
log_caller = false
`
}
