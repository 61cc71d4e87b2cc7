package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// NormalizeFormat maps format aliases onto canonical reader names.
// Accepted aliases:
// - "", "auto" -> "auto"
// - "xml", "mspdi", "msproject-xml" -> "mspdi"
// - "mpx" -> "mpx"
// - "mpp", "mpt" -> "mpp"
// The boolean is false for anything else.
func NormalizeFormat(input string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "", "auto":
		return "auto", true
	case "xml", "mspdi", "msproject-xml", "msproject_xml":
		return "mspdi", true
	case "mpx":
		return "mpx", true
	case "mpp", "mpt":
		return "mpp", true
	default:
		return s, false
	}
}

// LowerExt returns the lowercase extension of path without the leading dot.
func LowerExt(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
