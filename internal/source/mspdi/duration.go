package mspdi

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/trabalhosfenix/planconv/internal/model"
)

// estimatedOffset is added to a DurationFormat code when the duration is an estimate.
const estimatedOffset = 32

var formatUnits = map[int]model.TimeUnit{
	3:  model.Minutes,
	4:  model.ElapsedMinutes,
	5:  model.Hours,
	6:  model.ElapsedHours,
	7:  model.Days,
	8:  model.ElapsedDays,
	9:  model.Weeks,
	10: model.ElapsedWeeks,
	11: model.Months,
	12: model.ElapsedMonths,
	19: model.Percent,
	20: model.ElapsedPercent,
}

// DurationUnit maps a DurationFormat code to a time unit. Unknown codes map to days.
func DurationUnit(code int) model.TimeUnit {
	if code > estimatedOffset {
		code -= estimatedOffset
	}
	if u, ok := formatUnits[code]; ok {
		return u
	}
	return model.Days
}

var isoDuration = regexp.MustCompile(`^(-)?P(?:([\d.]+)Y)?(?:([\d.]+)M)?(?:([\d.]+)D)?(?:T(?:([\d.]+)H)?(?:([\d.]+)M)?(?:([\d.]+)S)?)?$`)

// ParseISODuration converts an ISO-8601 duration such as PT8H0M0S into
// working minutes. Days, months and years use the project calendar settings.
func ParseISODuration(text string, s model.Settings) (float64, error) {
	m := isoDuration.FindStringSubmatch(text)
	if m == nil || text == "P" || text == "-P" {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", text)
	}

	perDay := s.MinutesPerDay
	if perDay <= 0 {
		perDay = model.DefaultMinutesPerDay
	}
	perMonth := s.DaysPerMonth
	if perMonth <= 0 {
		perMonth = model.DefaultDaysPerMonth
	}

	factors := []float64{
		12 * perMonth * perDay, // years
		perMonth * perDay,      // months
		perDay,                 // days
		60,                     // hours
		1,                      // minutes
		1.0 / 60,               // seconds
	}

	var minutes float64
	for i, factor := range factors {
		part := m[i+2]
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q: %w", text, err)
		}
		minutes += v * factor
	}
	if m[1] == "-" {
		minutes = -minutes
	}
	return minutes, nil
}
