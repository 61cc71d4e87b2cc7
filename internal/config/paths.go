package config

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/trabalhosfenix/planconv/internal/utils"
)

const (
	appName        = "planconv"
	configFileName = "planconv.toml"
	dotEnvFileName = ".env"
)

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	names := []string{configFileName, "." + configFileName}
	for _, name := range names {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// findUserConfigFile returns the first existing user-level config file:
// ~/.planconv/planconv.toml, then planconv/planconv.toml under os.UserConfigDir.
func findUserConfigFile() string {
	for _, path := range userConfigCandidates() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func userConfigCandidates() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "."+appName, configFileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, appName, configFileName))
	}
	return paths
}

var windowsEnvVar = regexp.MustCompile(`%([^%]+)%`)

// expandPath expands ~ and environment variables in p. On Windows %VAR%
// references are expanded as well; unknown ones are left as written.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = windowsEnvVar.ReplaceAllStringFunc(p, func(ref string) string {
			if v, ok := os.LookupEnv(strings.Trim(ref, "%")); ok {
				return v
			}
			return ref
		})
	}
	return utils.ExpandHome(p)
}
