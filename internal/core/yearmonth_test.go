package core

import (
	"testing"
	"time"
)

func TestParseYearMonth(t *testing.T) {
	cases := []struct {
		in   string
		want YearMonth
		ok   bool
	}{
		{"2024-01", YearMonth{2024, time.January}, true},
		{"2024-12", YearMonth{2024, time.December}, true},
		{" 2025-06 ", YearMonth{2025, time.June}, true},
		{"2024-13", YearMonth{}, false},
		{"2024", YearMonth{}, false},
		{"", YearMonth{}, false},
	}
	for _, tc := range cases {
		got, err := ParseYearMonth(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestYearMonthAddMonths(t *testing.T) {
	cases := []struct {
		start YearMonth
		n     int
		want  YearMonth
	}{
		{YearMonth{2024, time.January}, 0, YearMonth{2024, time.January}},
		{YearMonth{2024, time.January}, 1, YearMonth{2024, time.February}},
		{YearMonth{2024, time.December}, 1, YearMonth{2025, time.January}},
		{YearMonth{2024, time.January}, 12, YearMonth{2025, time.January}},
		{YearMonth{2024, time.November}, 14, YearMonth{2026, time.January}},
		{YearMonth{2024, time.January}, -1, YearMonth{2023, time.December}},
	}
	for _, tc := range cases {
		if got := tc.start.AddMonths(tc.n); got != tc.want {
			t.Fatalf("%v + %d months: expected %v, got %v", tc.start, tc.n, tc.want, got)
		}
	}
}

// Adding a month never drifts the day: due dates are pinned to the 1st.
func TestYearMonthFirstDay(t *testing.T) {
	ym := YearMonth{2024, time.January}
	next := ym.AddMonths(1).FirstDay()
	if next.Year() != 2024 || next.Month() != time.February || next.Day() != 1 {
		t.Fatalf("expected 2024-02-01, got %s", next)
	}
}

func TestYearMonthOrdering(t *testing.T) {
	a := YearMonth{2024, time.March}
	b := YearMonth{2024, time.April}
	c := YearMonth{2025, time.January}
	if !a.Before(b) || !b.Before(c) || a.After(b) {
		t.Fatalf("ordering broken: %v %v %v", a, b, c)
	}
	if a.Before(a) || a.After(a) {
		t.Fatalf("a month compares before/after itself")
	}
}
