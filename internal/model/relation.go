package model

import (
	"fmt"
	"strings"
)

// RelationType is the kind of dependency between two tasks.
type RelationType int

const (
	FinishFinish RelationType = iota
	FinishStart
	StartFinish
	StartStart
)

var relationNames = map[RelationType]string{
	FinishFinish: "FINISH_FINISH",
	FinishStart:  "FINISH_START",
	StartFinish:  "START_FINISH",
	StartStart:   "START_START",
}

// String returns the canonical name of the relation type.
func (t RelationType) String() string {
	if name, ok := relationNames[t]; ok {
		return name
	}
	return fmt.Sprintf("RelationType(%d)", int(t))
}

// Abbreviation returns the conventional two letter form used by schedule
// tools (FF, FS, SF, SS).
func (t RelationType) Abbreviation() string {
	switch t {
	case FinishFinish:
		return "FF"
	case StartFinish:
		return "SF"
	case StartStart:
		return "SS"
	default:
		return "FS"
	}
}

// ParseRelationType parses an abbreviation (FS) or canonical name (FINISH_START).
// Matching is case-insensitive.
func ParseRelationType(s string) (RelationType, error) {
	key := strings.ToUpper(strings.TrimSpace(s))
	switch key {
	case "FF", "FINISH_FINISH":
		return FinishFinish, nil
	case "FS", "FINISH_START":
		return FinishStart, nil
	case "SF", "START_FINISH":
		return StartFinish, nil
	case "SS", "START_START":
		return StartStart, nil
	}
	return FinishStart, fmt.Errorf("unknown relation type %q", s)
}
