package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

const (
	minYear = 1900
	maxYear = 2100
)

var (
	isoDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	numericRe = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
)

// IsDate reports whether value looks like a date. Strict YYYY-MM-DD input is
// range-checked only (2024-02-30 passes); anything else must parse as a date
// with a year in [1900, 2100]. Percentages, currency, bare numbers and
// comma-grouped numbers never count as dates.
func IsDate(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return false
	}
	if strings.HasSuffix(v, "%") || strings.HasPrefix(v, "$") || numericRe.MatchString(v) {
		return false
	}
	if strings.ContainsAny(v, "$%,") {
		return false
	}
	if m := isoDateRe.FindStringSubmatch(v); m != nil {
		return inISORange(m)
	}
	t, err := dateparse.ParseAny(v)
	if err != nil {
		return false
	}
	return t.Year() >= minYear && t.Year() <= maxYear
}

func inISORange(m []string) bool {
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return y >= minYear && y <= maxYear && mo >= 1 && mo <= 12 && d >= 1 && d <= 31
}

// NormalizeDate returns value as YYYY-MM-DD for date inputs. Values that are
// already strict ISO dates are returned as-is; unparseable values unchanged.
func NormalizeDate(value string) string {
	v := strings.TrimSpace(value)
	if isoDateRe.MatchString(v) {
		return v
	}
	t, err := dateparse.ParseAny(v)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}
