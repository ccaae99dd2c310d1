package core

import (
	"fmt"
	"strings"
	"time"
)

// YearMonth identifies a calendar month without a day component. Credits
// start on a month and installments fall due on a month; pinning the day to
// the 1st happens only when a concrete date is needed, so adding months can
// never overflow into the wrong month (Jan 31 + 1 month is not Mar 3 here).
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses the wire form "2006-01".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q", s)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf truncates a time to its calendar month.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

func (ym YearMonth) Validate() error {
	if ym.Year < 1 || ym.Month < time.January || ym.Month > time.December {
		return fmt.Errorf("invalid year-month %d-%d", ym.Year, int(ym.Month))
	}
	return nil
}

// AddMonths advances by n whole months using plain year/month arithmetic.
func (ym YearMonth) AddMonths(n int) YearMonth {
	total := ym.Year*12 + int(ym.Month) - 1 + n
	y, m := total/12, total%12
	if m < 0 {
		m += 12
		y--
	}
	return YearMonth{Year: y, Month: time.Month(m + 1)}
}

// FirstDay returns the first day of the month at midnight UTC.
func (ym YearMonth) FirstDay() Date {
	return NewDate(ym.Year, int(ym.Month), 1)
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool {
	return other.Before(ym)
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
