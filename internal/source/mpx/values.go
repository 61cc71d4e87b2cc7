package mpx

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/trabalhosfenix/planconv/internal/model"
	"github.com/trabalhosfenix/planconv/internal/utils"
)

// Date order codes from the 12 record.
const (
	orderMDY = 0
	orderDMY = 1
	orderYMD = 2
)

// codePages maps MPX header code page names to decoders.
var codePages = map[string]encoding.Encoding{
	"ANSI": charmap.Windows1252,
	"1252": charmap.Windows1252,
	"DOS":  charmap.CodePage850,
	"850":  charmap.CodePage850,
	"437":  charmap.CodePage437,
	"MAC":  charmap.Macintosh,
}

func decodeText(data []byte, override, header string) (io.Reader, error) {
	enc, err := lookupEncoding(override, header)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return bytes.NewReader(data), nil
	}
	return transform.NewReader(bytes.NewReader(data), enc.NewDecoder()), nil
}

// lookupEncoding returns nil for UTF-8 input.
func lookupEncoding(override, header string) (encoding.Encoding, error) {
	if label := strings.TrimSpace(override); label != "" && !strings.EqualFold(label, "auto") {
		if enc, ok := codePages[strings.ToUpper(label)]; ok {
			return enc, nil
		}
		enc, name := charset.Lookup(label)
		if enc == nil {
			return nil, fmt.Errorf("unknown encoding %q", label)
		}
		if name == "utf-8" {
			return nil, nil
		}
		return enc, nil
	}

	switch key := strings.ToUpper(header); key {
	case "", "UTF8", "UTF-8":
		return nil, nil
	default:
		if enc, ok := codePages[key]; ok {
			return enc, nil
		}
		return charmap.Windows1252, nil
	}
}

// normalizeNumber rewrites a locale formatted number to Go syntax.
func (p *parser) normalizeNumber(text string) string {
	if p.thousandsSep != "" && p.thousandsSep != p.decimalSep {
		text = strings.ReplaceAll(text, p.thousandsSep, "")
	}
	if p.decimalSep != "." {
		text = strings.ReplaceAll(text, p.decimalSep, ".")
	}
	return strings.TrimSpace(text)
}

func (p *parser) number(text string) (decimal.Decimal, error) {
	return decimal.NewFromString(p.normalizeNumber(text))
}

func (p *parser) hoursToMinutes(text string) (float64, error) {
	hours, err := p.number(text)
	if err != nil {
		return 0, err
	}
	return hours.Mul(decimal.NewFromInt(60)).InexactFloat64(), nil
}

func (p *parser) percent(text string) (float64, error) {
	d, err := p.number(strings.TrimSuffix(strings.TrimSpace(text), "%"))
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// date parses values such as "15/01/2024 08:00" or "1/15/24 8:00 PM"
// according to the 12 record. NA means no date.
func (p *parser) date(text string) (*time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.EqualFold(text, "NA") {
		return nil, nil
	}

	datePart, timePart, _ := strings.Cut(text, " ")
	parts := strings.Split(datePart, p.dateSep)
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid date %q", text)
	}
	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid date %q", text)
		}
		nums[i] = n
	}

	var year, month, day int
	switch p.dateOrder {
	case orderDMY:
		day, month, year = nums[0], nums[1], nums[2]
	case orderYMD:
		year, month, day = nums[0], nums[1], nums[2]
	default:
		month, day, year = nums[0], nums[1], nums[2]
	}
	if year < 100 {
		year += 2000
		if year > 2069 {
			year -= 100
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, fmt.Errorf("invalid date %q", text)
	}

	hour, minute, err := p.clock(strings.TrimSpace(timePart))
	if err != nil {
		return nil, fmt.Errorf("invalid time in %q: %w", text, err)
	}
	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return &t, nil
}

func (p *parser) clock(text string) (int, int, error) {
	if text == "" {
		return 0, 0, nil
	}
	pm := p.pmText != "" && strings.HasSuffix(strings.ToUpper(text), strings.ToUpper(p.pmText))
	am := p.amText != "" && strings.HasSuffix(strings.ToUpper(text), strings.ToUpper(p.amText))
	text = strings.TrimRightFunc(text, func(r rune) bool { return !unicode.IsDigit(r) })

	hourText, minuteText, _ := strings.Cut(text, p.timeSep)
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, 0, err
	}
	minute := 0
	if minuteText != "" {
		if minute, err = strconv.Atoi(minuteText); err != nil {
			return 0, 0, err
		}
	}
	switch {
	case pm && hour < 12:
		hour += 12
	case am && hour == 12:
		hour = 0
	}
	if hour > 23 || minute > 59 {
		return 0, 0, fmt.Errorf("out of range")
	}
	return hour, minute, nil
}

// splitList splits a predecessor list. Commas separate entries unless the
// file uses a comma as decimal separator, in which case semicolons do.
func (p *parser) splitList(text string) []string {
	if p.decimalSep == "," {
		return utils.SplitAndTrim(text, ";")
	}
	return utils.SplitAndTrim(text, ",")
}

// relation parses a predecessor reference such as "2", "2SS" or "2FS+1.5d".
// Unknown task IDs resolve to a nil target.
func (p *parser) relation(ref string) *model.Relation {
	i := 0
	for i < len(ref) && ref[i] >= '0' && ref[i] <= '9' {
		i++
	}
	if i == 0 {
		return nil
	}
	id, err := strconv.Atoi(ref[:i])
	if err != nil {
		return nil
	}
	rel := &model.Relation{Target: p.project.TaskByID(id), Type: model.FinishStart}

	rest := strings.TrimSpace(ref[i:])
	if len(rest) >= 2 && unicode.IsLetter(rune(rest[0])) {
		if t, err := model.ParseRelationType(rest[:2]); err == nil {
			rel.Type = t
			rest = strings.TrimSpace(rest[2:])
		}
	}
	if rest != "" {
		if lag, err := model.ParseDuration(p.normalizeNumber(rest), model.Days); err == nil {
			rel.Lag = lag
		}
	}
	return rel
}
