package calculator

import (
	"fmt"
	"time"
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

// parseMonth("YYYY-MM") -> first day of the month, UTC
func parseMonth(yyyymm string) (time.Time, error) {
	if len(yyyymm) != 7 || yyyymm[4] != '-' {
		return time.Time{}, fmt.Errorf("expected YYYY-MM (ex: 2025-01), got %q", yyyymm)
	}
	t, err := time.Parse(monthLayout, yyyymm)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q", yyyymm)
	}
	return t, nil
}

func monthsBetweenInclusive(start, end time.Time) []time.Time {
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

func formatMonth(t time.Time) string {
	return t.Format(monthLayout)
}

// monthRange lists every YYYY-MM between start and end inclusive.
func monthRange(start, end string) ([]string, error) {
	s, err := parseMonth(start)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	e, err := parseMonth(end)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}
	if e.Before(s) {
		return nil, fmt.Errorf("end %s < start %s", end, start)
	}
	months := monthsBetweenInclusive(s, e)
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = formatMonth(m)
	}
	return out, nil
}

// monthOf returns the YYYY-MM prefix of a creation timestamp when it is a
// readable month.
func monthOf(created string) (string, bool) {
	if len(created) < 7 {
		return "", false
	}
	m := created[:7]
	if _, err := parseMonth(m); err != nil {
		return "", false
	}
	return m, true
}

// monthIndex turns a validated YYYY-MM into a running month count.
func monthIndex(yyyymm string) int {
	y := int(yyyymm[0]-'0')*1000 + int(yyyymm[1]-'0')*100 + int(yyyymm[2]-'0')*10 + int(yyyymm[3]-'0')
	m := int(yyyymm[5]-'0')*10 + int(yyyymm[6]-'0')
	return y*12 + m - 1
}

// monthsOffset is the number of calendar months from `from` to `to`.
func monthsOffset(from, to string) int {
	return monthIndex(to) - monthIndex(from)
}

// weekOf returns the Monday starting the week of a timestamp or date string.
func weekOf(created string) (time.Time, bool) {
	if len(created) < 10 {
		return time.Time{}, false
	}
	d, err := time.Parse(dayLayout, created[:10])
	if err != nil {
		return time.Time{}, false
	}
	return monday(d), true
}

func monday(d time.Time) time.Time {
	back := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -back)
}

func formatDay(t time.Time) string {
	return t.Format(dayLayout)
}
