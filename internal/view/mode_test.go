package view

import (
	"testing"
	"time"
)

func TestWindow(t *testing.T) {
	ref := at(2024, 1, 17, 15, 30) // Wednesday

	tests := []struct {
		name      string
		mode      Mode
		weekStart time.Weekday
		from, to  time.Time
		ok        bool
	}{
		{name: "all", mode: All, ok: false},
		{name: "week monday", mode: Week, weekStart: time.Monday, from: at(2024, 1, 15, 0, 0), to: at(2024, 1, 22, 0, 0), ok: true},
		{name: "week sunday", mode: Week, weekStart: time.Sunday, from: at(2024, 1, 14, 0, 0), to: at(2024, 1, 21, 0, 0), ok: true},
		{name: "month", mode: Month, from: at(2024, 1, 1, 0, 0), to: at(2024, 2, 1, 0, 0), ok: true},
		{name: "year", mode: Year, from: at(2024, 1, 1, 0, 0), to: at(2025, 1, 1, 0, 0), ok: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, ok := Window(tt.mode, ref, tt.weekStart)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !from.Equal(tt.from) || !to.Equal(tt.to) {
				t.Errorf("Window() = [%v, %v), want [%v, %v)", from, to, tt.from, tt.to)
			}
		})
	}
}

func TestWindowOnWeekStart(t *testing.T) {
	from, _, _ := Window(Week, at(2024, 1, 15, 0, 0), time.Monday)
	if !from.Equal(at(2024, 1, 15, 0, 0)) {
		t.Errorf("week of a Monday starts %v", from)
	}
}

func TestShift(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		ref  time.Time
		n    int
		want time.Time
	}{
		{name: "all unchanged", mode: All, ref: at(2024, 1, 31, 9, 0), n: 3, want: at(2024, 1, 31, 9, 0)},
		{name: "week forward", mode: Week, ref: at(2024, 1, 17, 9, 0), n: 1, want: at(2024, 1, 24, 9, 0)},
		{name: "week back", mode: Week, ref: at(2024, 1, 3, 9, 0), n: -1, want: at(2023, 12, 27, 9, 0)},
		{name: "month from 31st", mode: Month, ref: at(2024, 1, 31, 9, 0), n: 1, want: at(2024, 2, 1, 9, 0)},
		{name: "month back across year", mode: Month, ref: at(2024, 1, 10, 9, 0), n: -1, want: at(2023, 12, 1, 9, 0)},
		{name: "year", mode: Year, ref: at(2024, 2, 29, 9, 0), n: 1, want: at(2025, 2, 1, 9, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Shift(tt.mode, tt.ref, tt.n); !got.Equal(tt.want) {
				t.Errorf("Shift() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModeNextAndParse(t *testing.T) {
	seq := []Mode{All, Week, Month, Year, All}
	for i := 0; i < len(seq)-1; i++ {
		if got := seq[i].Next(); got != seq[i+1] {
			t.Errorf("%s.Next() = %s, want %s", seq[i], got, seq[i+1])
		}
	}

	for _, m := range []Mode{All, Week, Month, Year} {
		got, err := ParseMode(" " + m.String() + " ")
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("fortnight"); err == nil {
		t.Error("ParseMode should reject unknown names")
	}
}

func TestLabel(t *testing.T) {
	ref := at(2024, 1, 17, 12, 0)
	tests := []struct {
		mode Mode
		want string
	}{
		{All, "All events"},
		{Week, "Week 2024-01-15 – 2024-01-21"},
		{Month, "January 2024"},
		{Year, "2024"},
	}
	for _, tt := range tests {
		if got := Label(tt.mode, ref, time.Monday); got != tt.want {
			t.Errorf("Label(%s) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
