package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	monthRe   = regexp.MustCompile(`(?i)^(?:(early|mid|late)[ -])?([a-z]+)\s+(?:CY)?(\d{4})$`)
	quarterRe = regexp.MustCompile(`(?i)^(Q[1-4])\s+(?:CY)?(\d{4})$`)
	isoRe     = regexp.MustCompile(`^(\d{4})-(\d{2})(?:-(\d{2}))?`)
)

var monthsByName = map[string]time.Month{}

func init() {
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		monthsByName[name] = m
		monthsByName[name[:3]] = m
	}
	// Common four-letter abbreviation seen in roadmap prose.
	monthsByName["sept"] = time.September
}

var quarterStart = map[string]time.Month{
	"Q1": time.January,
	"Q2": time.April,
	"Q3": time.July,
	"Q4": time.October,
}

// Date rewrites a targeted-dates value to its canonical token when the value
// is fully resolvable to a concrete month or quarter ("September CY2025",
// "Q3 CY2025"). Vague values like "CY2025" or "H2 CY2025" are preserved
// verbatim: the original string is never discarded and never replaced with
// an invented date.
func Date(raw string) string {
	trimmed := Clean(raw)
	if trimmed == "" {
		return ""
	}
	if t, ok := ParseTargetDate(trimmed); ok {
		if q, isQuarter := quarterToken(trimmed); isQuarter {
			return fmt.Sprintf("%s CY%d", q, t.Year())
		}
		return fmt.Sprintf("%s CY%d", t.Month(), t.Year())
	}
	return trimmed
}

func quarterToken(s string) (string, bool) {
	m := quarterRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// ParseTargetDate resolves a targeted-dates value to the first day of its
// concrete month or quarter. Only month-precision and quarter-precision
// values parse; halves, bare years, and free prose do not, which is what
// keeps them out of date-windowed views.
func ParseTargetDate(raw string) (time.Time, bool) {
	s := Clean(raw)
	if s == "" {
		return time.Time{}, false
	}

	if m := isoRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			day := 1
			if m[3] != "" {
				if d, err := strconv.Atoi(m[3]); err == nil && d >= 1 && d <= 31 {
					day = d
				}
			}
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
		return time.Time{}, false
	}

	if m := quarterRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[2])
		return time.Date(year, quarterStart[strings.ToUpper(m[1])], 1, 0, 0, 0, 0, time.UTC), true
	}

	if m := monthRe.FindStringSubmatch(s); m != nil {
		month, ok := monthsByName[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		year, _ := strconv.Atoi(m[3])
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}
