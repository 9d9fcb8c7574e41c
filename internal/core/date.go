package core

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// ISOLayout is the canonical wire form of transaction dates.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// Layouts tried before falling back to the lenient parser. Date-only values
// are interpreted as UTC midnight.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses an external date string into an instant.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if !hasYear(s) || !knownWords(s) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := dateparse.ParseStrict(s)
	if err != nil {
		return time.Time{}, errors.Join(ErrInvalidDate, err)
	}
	if t.Year() == 0 {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC(), nil
}

// dateWords are the alphabetic tokens a free-form date may carry. The lenient
// parser drops text it does not understand, so anything else is refused here.
var dateWords = map[string]bool{
	"t": true, "z": true, "am": true, "pm": true, "utc": true, "gmt": true,
	"jan": true, "feb": true, "mar": true, "apr": true, "may": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "sept": true, "oct": true, "nov": true, "dec": true,
	"january": true, "february": true, "march": true, "april": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true,
}

// hasYear reports whether s contains a run of four digits.
func hasYear(s string) bool {
	run := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			run++
			if run == 4 {
				return true
			}
			continue
		}
		run = 0
	}
	return false
}

// knownWords reports whether every alphabetic token of s is a month, weekday,
// meridiem or zone name. Upper-case tokens of up to five letters are taken
// as zone abbreviations.
func knownWords(s string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		if dateWords[strings.ToLower(w)] {
			continue
		}
		if len(w) <= 5 && strings.ToUpper(w) == w {
			continue
		}
		return false
	}
	return true
}

// FormatISO renders t in the canonical wire form.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// CanonicalDate parses s and returns its canonical wire form.
func CanonicalDate(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return FormatISO(t), nil
}

// DatePart returns the YYYY-MM-DD prefix of a wire date, or the input
// unchanged when it has no time component.
func DatePart(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}
