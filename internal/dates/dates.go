// Package dates normalizes the free-text dates scraped off the notice
// boards into a single sortable YYYY-MM-DD form. The boards mix ISO,
// dotted Korean-style and English month-name formats depending on locale.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Canonical is the normalized calendar-date layout used everywhere
// downstream, including the parsed_date column.
const Canonical = "2006-01-02"

// exact layouts tried first, in priority order.
var layouts = []string{
	"2006-01-02",
	"2006.01.02",
	"Jan 2, 2006",
	"2006/01/02",
	"01/02/2006",
}

var (
	yearFirstRe = regexp.MustCompile(`(\d{4})[.-](\d{1,2})[.-](\d{1,2})`)
	yearLastRe  = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	monthNameRe = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})`)
	numberRe    = regexp.MustCompile(`\d+`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Normalize parses raw into the canonical YYYY-MM-DD form. The second
// return value is false when no date could be extracted; Normalize never
// fails any harder than that, garbage input is simply unparseable.
func Normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(Canonical), true
		}
	}

	if s, ok := scanPatterns(raw); ok {
		return s, true
	}

	return scanLooseNumbers(raw)
}

// scanPatterns looks for a date embedded anywhere in the string, e.g.
// "[Notice] Update 2025.08.06 details" or "Posted Aug 6, 2025".
func scanPatterns(raw string) (string, bool) {
	if m := yearFirstRe.FindStringSubmatch(raw); m != nil {
		if s, ok := buildDate(m[1], m[2], m[3]); ok {
			return s, true
		}
	}
	if m := yearLastRe.FindStringSubmatch(raw); m != nil {
		if s, ok := buildDate(m[3], m[1], m[2]); ok {
			return s, true
		}
	}
	if m := monthNameRe.FindStringSubmatch(raw); m != nil {
		month, ok := monthNames[strings.ToLower(m[1])[:3]]
		if ok {
			if s, ok := buildDate(m[3], strconv.Itoa(int(month)), m[2]); ok {
				return s, true
			}
		}
	}
	return "", false
}

// scanLooseNumbers is the last-resort heuristic: pull out every numeric
// substring, treat the first value above 2000 as the year and the next
// two as month and day, swapping them when the presumed month is
// impossible.
func scanLooseNumbers(raw string) (string, bool) {
	nums := numberRe.FindAllString(raw, -1)
	if len(nums) < 3 {
		return "", false
	}

	yearIdx := -1
	for i, n := range nums {
		if v, err := strconv.Atoi(n); err == nil && v > 2000 {
			yearIdx = i
			break
		}
	}
	if yearIdx < 0 {
		return "", false
	}

	year, _ := strconv.Atoi(nums[yearIdx])
	rest := make([]int, 0, len(nums)-1)
	for i, n := range nums {
		if i == yearIdx {
			continue
		}
		if v, err := strconv.Atoi(n); err == nil {
			rest = append(rest, v)
		}
	}
	if len(rest) < 2 {
		return "", false
	}

	month, day := rest[0], rest[1]
	if month > 12 {
		month, day = day, month
	}
	return buildDate(strconv.Itoa(year), strconv.Itoa(month), strconv.Itoa(day))
}

// buildDate validates the components against the real calendar; time.Date
// normalizes out-of-range values, so a round-trip check catches e.g.
// month 13 or Feb 30.
func buildDate(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || t.Month() != time.Month(m) || t.Day() != d {
		return "", false
	}
	return t.Format(Canonical), true
}
