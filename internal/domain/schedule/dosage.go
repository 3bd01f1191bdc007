package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// dosagePatterns are tried in order; the first match wins.
var dosagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*x\s*(?:daily|a day|per day|/\s*day|day)`),
	regexp.MustCompile(`(?i)(\d+)\s*times?\s*(?:daily|a day|per day)`),
	regexp.MustCompile(`(?i)\btake\s+(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:tablets?|capsules?|caps?|pills?|softgels?|scoops?|drops?|gumm(?:y|ies))\b.*\bdaily`),
	regexp.MustCompile(`(?i)(\d+)\s*(?:per day|a day|daily)`),
}

// ParseDosageCount pulls a daily count out of free text such as
// "2x daily", "Take 3 with food" or "1 tablet daily".
func ParseDosageCount(text string) (int, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}
	for _, re := range dosagePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || n > MaxDosesPerDay {
			continue
		}
		return n, true
	}
	return 0, false
}

// ResolveDosesPerDay picks the daily dose count: an explicit positive
// DosesPerDay, then the dosage text, then the number of distinct
// time-of-day slots, then 1.
func ResolveDosesPerDay(s Schedule) int {
	if s.DosesPerDay > 0 {
		return min(s.DosesPerDay, MaxDosesPerDay)
	}
	if n, ok := ParseDosageCount(s.Dosage); ok {
		return n
	}
	if n := distinctSlots(s.Times); n > 0 {
		return min(n, MaxDosesPerDay)
	}
	return 1
}

func distinctSlots(times []string) int {
	seen := make(map[string]struct{}, len(times))
	for _, t := range times {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		seen[t] = struct{}{}
	}
	return len(seen)
}
