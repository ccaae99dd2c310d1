// Package timeline positions time-ranged entities (projects, credits) on a
// navigable year/month/week view. It computes period bounds, sub-interval
// labels and proportional bar placements; rendering belongs to the caller.
// Everything here is a pure function of its inputs.
package timeline

import (
	"fmt"
	"strings"
	"time"
)

const (
	Year  Granularity = "year"
	Month Granularity = "month"
	Week  Granularity = "week"
)

// Granularity is the calendar zoom level of the view.
type Granularity string

func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(strings.ToLower(strings.TrimSpace(s))) {
	case Year:
		return Year, nil
	case Month:
		return Month, nil
	case Week:
		return Week, nil
	}
	return "", fmt.Errorf("unknown granularity %q", s)
}

// Bounds is the half-open interval [Start, End) covered by a view. End is
// the first midnight after the period, so a leap year spans exactly 366
// days and all arithmetic stays on whole days.
type Bounds struct {
	Start time.Time
	End   time.Time
}

// Days returns the span length in days.
func (b Bounds) Days() float64 {
	return b.End.Sub(b.Start).Hours() / 24
}

// ViewBounds computes the period containing ref for the given granularity.
// Weeks are ISO weeks, starting on Monday.
func ViewBounds(ref time.Time, g Granularity) Bounds {
	ref = midnight(ref)
	switch g {
	case Month:
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Bounds{Start: start, End: start.AddDate(0, 1, 0)}
	case Week:
		start := ref.AddDate(0, 0, -mondayOffset(ref))
		return Bounds{Start: start, End: start.AddDate(0, 0, 7)}
	default: // Year
		start := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return Bounds{Start: start, End: start.AddDate(1, 0, 0)}
	}
}

// SubIntervalLabels returns the ordered column headers of a view: 12 short
// month names for a year, every day number for a month, 7 short weekday
// names for a week. The month view always returns all days; subsampling for
// narrow displays is a presentation concern left to the caller.
func SubIntervalLabels(b Bounds, g Granularity) []string {
	switch g {
	case Month:
		days := int(b.Days())
		labels := make([]string, 0, days)
		for d := 1; d <= days; d++ {
			labels = append(labels, fmt.Sprintf("%02d", d))
		}
		return labels
	case Week:
		labels := make([]string, 0, 7)
		for d := 0; d < 7; d++ {
			labels = append(labels, b.Start.AddDate(0, 0, d).Format("Mon"))
		}
		return labels
	default: // Year
		labels := make([]string, 0, 12)
		for m := time.January; m <= time.December; m++ {
			labels = append(labels, m.String()[:3])
		}
		return labels
	}
}

// ViewState is the caller-owned navigation state: the date the view is
// centered on and the zoom level. It is a value; transitions return a new
// state instead of mutating shared data.
type ViewState struct {
	Reference   time.Time
	Granularity Granularity
}

// NewViewState returns the initial state: today at year granularity.
func NewViewState(now time.Time) ViewState {
	return ViewState{Reference: midnight(now), Granularity: Year}
}

// Prev moves the reference back by one unit of the current granularity.
func (v ViewState) Prev() ViewState {
	return v.step(-1)
}

// Next moves the reference forward by one unit of the current granularity.
func (v ViewState) Next() ViewState {
	return v.step(1)
}

// WithGranularity changes the zoom level, keeping the reference date.
func (v ViewState) WithGranularity(g Granularity) ViewState {
	v.Granularity = g
	return v
}

// JumpToToday recenters the view on the given current date.
func (v ViewState) JumpToToday(now time.Time) ViewState {
	v.Reference = midnight(now)
	return v
}

// Bounds returns the period currently in view.
func (v ViewState) Bounds() Bounds {
	return ViewBounds(v.Reference, v.Granularity)
}

// Title is the human-readable period heading, e.g. "2024", "June 2024" or
// "Week of 03 Jun 2024 to 09 Jun 2024".
func (v ViewState) Title() string {
	b := v.Bounds()
	switch v.Granularity {
	case Month:
		return b.Start.Format("January 2006")
	case Week:
		last := b.End.AddDate(0, 0, -1)
		return fmt.Sprintf("Week of %s to %s", b.Start.Format("02 Jan 2006"), last.Format("02 Jan 2006"))
	default:
		return b.Start.Format("2006")
	}
}

func (v ViewState) step(n int) ViewState {
	switch v.Granularity {
	case Month:
		v.Reference = addMonthsClamped(v.Reference, n)
	case Week:
		v.Reference = v.Reference.AddDate(0, 0, 7*n)
	default: // Year
		v.Reference = addMonthsClamped(v.Reference, 12*n)
	}
	return v
}

// addMonthsClamped moves by whole months, clamping the day to the target
// month's length so Jan 31 + 1 month lands on the last day of February
// instead of rolling into March.
func addMonthsClamped(t time.Time, n int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 + n
	y, m := total/12, total%12
	if m < 0 {
		m += 12
		y--
	}
	month := time.Month(m + 1)
	day := t.Day()
	if last := daysInMonth(y, month); day > last {
		day = last
	}
	return time.Date(y, month, day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
