package core

import "time"

// EnsureUTC normalizes an instant to UTC. A zero-offset naive instant coming
// from storage is already treated as UTC by the converter, so this only
// rebases the location.
func EnsureUTC(t time.Time) time.Time {
	return t.UTC()
}

// WindowForPeriod returns the current [start, end) window containing now for
// the given granularity, in UTC.
//
//	weekly:  Monday 00:00 UTC to next Monday 00:00 UTC
//	monthly: 1st of month 00:00 UTC to 1st of next month
//	yearly:  Jan 1 00:00 UTC to Jan 1 of next year
func WindowForPeriod(period Period, now time.Time) (start, end time.Time, err error) {
	now = EnsureUTC(now)

	switch period {
	case Weekly:
		// time.Weekday is Sunday=0; the window is anchored on Monday.
		offset := (int(now.Weekday()) + 6) % 7
		day := now.AddDate(0, 0, -offset)
		start = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 7)
		return start, end, nil

	case Monthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
		return start, end, nil

	case Yearly:
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(1, 0, 0)
		return start, end, nil
	}

	return time.Time{}, time.Time{}, ErrInvalidPeriod
}

// ProgressRatio returns the elapsed fraction of [start, end) at now, clamped
// to [0, 1]. A degenerate window (end <= start) counts as fully elapsed.
func ProgressRatio(start, end, now time.Time) float64 {
	start = EnsureUTC(start)
	end = EnsureUTC(end)
	now = EnsureUTC(now)

	total := end.Sub(start).Seconds()
	if total <= 0 {
		return 1.0
	}

	if now.After(end) {
		now = end
	}
	elapsed := now.Sub(start).Seconds()

	ratio := elapsed / total
	if ratio < 0 {
		return 0.0
	}
	if ratio > 1 {
		return 1.0
	}
	return ratio
}
