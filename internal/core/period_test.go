package core

import (
	"errors"
	"testing"
	"time"
)

func TestWindowForPeriod_Weekly(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			name:      "saturday resolves to preceding monday",
			now:       time.Date(2026, 2, 7, 16, 46, 0, 0, time.UTC),
			wantStart: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "monday midnight is its own window start",
			now:       time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "sunday belongs to the week started six days earlier",
			now:       time.Date(2026, 2, 8, 23, 59, 59, 0, time.UTC),
			wantStart: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "week spanning a month boundary",
			now:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			wantStart: time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := WindowForPeriod(Weekly, tt.now)
			if err != nil {
				t.Fatalf("WindowForPeriod() error = %v", err)
			}
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if want := tt.wantStart.AddDate(0, 0, 7); !end.Equal(want) {
				t.Errorf("end = %v, want %v", end, want)
			}
		})
	}
}

func TestWindowForPeriod_Monthly(t *testing.T) {
	tests := []struct {
		name     string
		now      time.Time
		wantFrom time.Time
		wantTo   time.Time
	}{
		{
			name:     "mid february",
			now:      time.Date(2026, 2, 7, 16, 46, 0, 0, time.UTC),
			wantFrom: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "december rolls over the year",
			now:      time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC),
			wantFrom: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			wantTo:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := WindowForPeriod(Monthly, tt.now)
			if err != nil {
				t.Fatalf("WindowForPeriod() error = %v", err)
			}
			if !start.Equal(tt.wantFrom) || !end.Equal(tt.wantTo) {
				t.Errorf("window = [%v, %v), want [%v, %v)", start, end, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestWindowForPeriod_Yearly(t *testing.T) {
	start, end, err := WindowForPeriod(Yearly, time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("WindowForPeriod() error = %v", err)
	}
	if !start.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}
}

func TestWindowForPeriod_InvalidPeriod(t *testing.T) {
	_, _, err := WindowForPeriod(Period("daily"), time.Now())
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("err = %v, want ErrInvalidPeriod", err)
	}
}

func TestWindowForPeriod_NonUTCInput(t *testing.T) {
	// 2026-02-01 02:00 +05 is still 2026-01-31 21:00 UTC, so the monthly
	// window has to be January.
	loc := time.FixedZone("UTC+5", 5*3600)
	now := time.Date(2026, 2, 1, 2, 0, 0, 0, loc)

	start, _, err := WindowForPeriod(Monthly, now)
	if err != nil {
		t.Fatalf("WindowForPeriod() error = %v", err)
	}
	if want := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start = %v, want %v", start, want)
	}
}

func TestProgressRatio(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"at start", start, 0.0},
		{"at end", end, 1.0},
		{"past end clamps to one", end.AddDate(0, 0, 3), 1.0},
		{"before start clamps to zero", start.Add(-time.Hour), 0.0},
		{"halfway", start.Add(84 * time.Hour), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProgressRatio(start, end, tt.now)
			if got != tt.want {
				t.Errorf("ProgressRatio() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("ProgressRatio() = %v, out of [0, 1]", got)
			}
		})
	}
}

func TestProgressRatio_DegenerateWindow(t *testing.T) {
	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

	if got := ProgressRatio(at, at, at); got != 1.0 {
		t.Errorf("zero-length window ratio = %v, want 1.0", got)
	}
	if got := ProgressRatio(at, at.Add(-time.Hour), at); got != 1.0 {
		t.Errorf("inverted window ratio = %v, want 1.0", got)
	}
}
