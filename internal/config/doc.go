// Package config handles configuration loading and defaults.
//
// Configuration is loaded from multiple sources in priority order:
// 1. Built-in defaults
// 2. User config file (~/.planconv/planconv.toml or OS-specific config directory)
// 3. Project config file (planconv.toml or .planconv.toml in the working directory)
// 4. A .env file in the working directory (never overrides the real environment)
// 5. Environment variables (PLANCONV_*)
// 6. CLI flags
//
// Each level overrides the previous one, so CLI flags take precedence.
//
// User-level config locations:
// - ~/.planconv/planconv.toml (preferred)
// - Windows: %APPDATA%\planconv\planconv.toml
// - macOS: ~/Library/Application Support/planconv/planconv.toml
// - Linux/BSD: $XDG_CONFIG_HOME/planconv/planconv.toml or ~/.config/planconv/planconv.toml
package config
