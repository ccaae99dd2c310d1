package timeline

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestViewBoundsYear(t *testing.T) {
	b := ViewBounds(date(2024, time.June, 15), Year)
	if !b.Start.Equal(date(2024, time.January, 1)) {
		t.Fatalf("year start: got %s", b.Start)
	}
	if !b.End.Equal(date(2025, time.January, 1)) {
		t.Fatalf("year end: got %s", b.End)
	}
	// 2024 is a leap year.
	if got := b.Days(); got != 366 {
		t.Fatalf("expected 366 days, got %v", got)
	}
	if got := ViewBounds(date(2023, time.March, 1), Year).Days(); got != 365 {
		t.Fatalf("expected 365 days for 2023, got %v", got)
	}
}

func TestViewBoundsMonth(t *testing.T) {
	b := ViewBounds(date(2024, time.February, 17), Month)
	if !b.Start.Equal(date(2024, time.February, 1)) || !b.End.Equal(date(2024, time.March, 1)) {
		t.Fatalf("february bounds: got [%s, %s)", b.Start, b.End)
	}
	if got := b.Days(); got != 29 {
		t.Fatalf("expected 29 days, got %v", got)
	}
}

func TestViewBoundsWeekStartsMonday(t *testing.T) {
	cases := []struct {
		ref       time.Time
		wantStart time.Time
	}{
		{date(2024, time.June, 5), date(2024, time.June, 3)},  // Wednesday
		{date(2024, time.June, 3), date(2024, time.June, 3)},  // Monday itself
		{date(2024, time.June, 9), date(2024, time.June, 3)},  // Sunday belongs to the preceding Monday
		{date(2024, time.January, 1), date(2024, time.January, 1)}, // Jan 1 2024 is a Monday
	}
	for _, tc := range cases {
		b := ViewBounds(tc.ref, Week)
		if !b.Start.Equal(tc.wantStart) {
			t.Fatalf("week of %s: expected start %s, got %s", tc.ref, tc.wantStart, b.Start)
		}
		if !b.End.Equal(tc.wantStart.AddDate(0, 0, 7)) {
			t.Fatalf("week of %s: expected 7-day span, got end %s", tc.ref, b.End)
		}
	}
}

func TestSubIntervalLabels(t *testing.T) {
	year := SubIntervalLabels(ViewBounds(date(2024, time.May, 1), Year), Year)
	if len(year) != 12 || year[0] != "Jan" || year[11] != "Dec" {
		t.Fatalf("year labels: got %v", year)
	}

	feb := SubIntervalLabels(ViewBounds(date(2024, time.February, 10), Month), Month)
	if len(feb) != 29 || feb[0] != "01" || feb[28] != "29" {
		t.Fatalf("february labels: got %d labels, first %q last %q", len(feb), feb[0], feb[len(feb)-1])
	}

	week := SubIntervalLabels(ViewBounds(date(2024, time.June, 5), Week), Week)
	if len(week) != 7 || week[0] != "Mon" || week[6] != "Sun" {
		t.Fatalf("week labels: got %v", week)
	}
}

func TestParseGranularity(t *testing.T) {
	for _, s := range []string{"year", "Month", " week "} {
		if _, err := ParseGranularity(s); err != nil {
			t.Fatalf("%q: expected ok, got %v", s, err)
		}
	}
	if _, err := ParseGranularity("quarter"); err == nil {
		t.Fatalf("expected error for unknown granularity")
	}
}

func TestViewStateNavigation(t *testing.T) {
	v := NewViewState(date(2024, time.June, 15))
	if v.Granularity != Year {
		t.Fatalf("initial granularity: got %v", v.Granularity)
	}

	if got := v.Next().Reference; !got.Equal(date(2025, time.June, 15)) {
		t.Fatalf("next year: got %s", got)
	}
	if got := v.Prev().Reference; !got.Equal(date(2023, time.June, 15)) {
		t.Fatalf("prev year: got %s", got)
	}

	m := v.WithGranularity(Month)
	if !m.Reference.Equal(v.Reference) {
		t.Fatalf("changing granularity moved the reference date")
	}
	if got := m.Next().Reference; !got.Equal(date(2024, time.July, 15)) {
		t.Fatalf("next month: got %s", got)
	}

	w := v.WithGranularity(Week)
	if got := w.Prev().Reference; !got.Equal(date(2024, time.June, 8)) {
		t.Fatalf("prev week: got %s", got)
	}

	today := date(2026, time.February, 2)
	if got := w.JumpToToday(today).Reference; !got.Equal(today) {
		t.Fatalf("jump to today: got %s", got)
	}
}

// Month steps clamp the day instead of rolling into the following month.
func TestViewStateMonthStepClamps(t *testing.T) {
	v := ViewState{Reference: date(2024, time.January, 31), Granularity: Month}
	if got := v.Next().Reference; !got.Equal(date(2024, time.February, 29)) {
		t.Fatalf("Jan 31 + 1 month: got %s", got)
	}
	y := ViewState{Reference: date(2024, time.February, 29), Granularity: Year}
	if got := y.Next().Reference; !got.Equal(date(2025, time.February, 28)) {
		t.Fatalf("Feb 29 + 1 year: got %s", got)
	}
}

func TestViewStateTitle(t *testing.T) {
	ref := date(2024, time.June, 5)
	if got := (ViewState{ref, Year}).Title(); got != "2024" {
		t.Fatalf("year title: got %q", got)
	}
	if got := (ViewState{ref, Month}).Title(); got != "June 2024" {
		t.Fatalf("month title: got %q", got)
	}
	if got := (ViewState{ref, Week}).Title(); got != "Week of 03 Jun 2024 to 09 Jun 2024" {
		t.Fatalf("week title: got %q", got)
	}
}
