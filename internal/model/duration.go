package model

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeUnit is the unit a duration is expressed in.
type TimeUnit int

const (
	Minutes TimeUnit = iota
	Hours
	Days
	Weeks
	Months
	Years
	ElapsedMinutes
	ElapsedHours
	ElapsedDays
	ElapsedWeeks
	ElapsedMonths
	ElapsedYears
	Percent
	ElapsedPercent
)

var unitAbbreviations = []struct {
	unit TimeUnit
	abbr string
}{
	{ElapsedMonths, "emo"},
	{ElapsedMinutes, "em"},
	{ElapsedHours, "eh"},
	{ElapsedDays, "ed"},
	{ElapsedWeeks, "ew"},
	{ElapsedYears, "ey"},
	{ElapsedPercent, "e%"},
	{Months, "mo"},
	{Minutes, "m"},
	{Hours, "h"},
	{Days, "d"},
	{Weeks, "w"},
	{Years, "y"},
	{Percent, "%"},
}

// String returns the unit abbreviation.
func (u TimeUnit) String() string {
	for _, entry := range unitAbbreviations {
		if entry.unit == u {
			return entry.abbr
		}
	}
	return "d"
}

// ParseTimeUnit parses a unit abbreviation such as "d", "eh" or "mo".
func ParseTimeUnit(s string) (TimeUnit, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, entry := range unitAbbreviations {
		if entry.abbr == key {
			return entry.unit, nil
		}
	}
	return Days, fmt.Errorf("unknown time unit %q", s)
}

// Duration is an amount of time in a given unit.
type Duration struct {
	Value float64
	Units TimeUnit
}

// String renders the duration as value plus unit, with at least one
// fractional digit: 5.0d, 2.5h, 0.125w.
func (d Duration) String() string {
	return formatValue(d.Value) + d.Units.String()
}

// IsZero reports whether the duration has no length.
func (d Duration) IsZero() bool {
	return d.Value == 0
}

// ParseDuration parses text such as "5d", "2.5 eh" or "1w". A bare number is
// taken to be in fallback units.
func ParseDuration(s string, fallback TimeUnit) (Duration, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Duration{}, fmt.Errorf("empty duration")
	}

	i := 0
	for i < len(text) && (text[i] == '-' || text[i] == '+' || text[i] == '.' || (text[i] >= '0' && text[i] <= '9')) {
		i++
	}
	value, err := strconv.ParseFloat(text[:i], 64)
	if err != nil {
		return Duration{}, fmt.Errorf("parse duration %q: %w", s, err)
	}

	unitText := strings.TrimSuffix(strings.TrimSpace(text[i:]), "?")
	if unitText == "" {
		return Duration{Value: value, Units: fallback}, nil
	}
	unit, err := ParseTimeUnit(unitText)
	if err != nil {
		return Duration{}, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return Duration{Value: value, Units: unit}, nil
}

// FromMinutes converts a number of working minutes into the requested unit
// using the project calendar settings.
func FromMinutes(minutes float64, unit TimeUnit, s Settings) Duration {
	s = s.withDefaults()
	var value float64
	switch unit {
	case Minutes, ElapsedMinutes:
		value = minutes
	case Hours, ElapsedHours:
		value = minutes / 60
	case Days:
		value = minutes / s.MinutesPerDay
	case ElapsedDays:
		value = minutes / (24 * 60)
	case Weeks:
		value = minutes / s.MinutesPerWeek
	case ElapsedWeeks:
		value = minutes / (7 * 24 * 60)
	case Months:
		value = minutes / (s.MinutesPerDay * s.DaysPerMonth)
	case ElapsedMonths:
		value = minutes / (30 * 24 * 60)
	case Years:
		value = minutes / (s.MinutesPerDay * s.DaysPerMonth * 12)
	case ElapsedYears:
		value = minutes / (365 * 24 * 60)
	default:
		value = minutes
	}
	return Duration{Value: round(value), Units: unit}
}

func (s Settings) withDefaults() Settings {
	if s.MinutesPerDay <= 0 {
		s.MinutesPerDay = DefaultMinutesPerDay
	}
	if s.MinutesPerWeek <= 0 {
		s.MinutesPerWeek = DefaultMinutesPerWeek
	}
	if s.DaysPerMonth <= 0 {
		s.DaysPerMonth = DefaultDaysPerMonth
	}
	return s
}

// round trims binary noise from unit conversion (0.30000000000000004).
func round(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 6, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func formatValue(v float64) string {
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(text, ".eE") {
		text += ".0"
	}
	return text
}
