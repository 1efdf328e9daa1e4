package model

import (
	"time"

	"github.com/kmafetch/kmafetch/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

const (
	monthLabel = "200601"
	dayLabel   = "20060102"
)

// Interval is one requested period in the portal's label format
type Interval struct {
	Start string
	End   string
}

// ExpandIntervals splits [start, end] into the ordered request periods of mode.
func ExpandIntervals(start, end time.Time, mode IntervalMode) ([]Interval, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if start.After(end) {
		return nil, goerr.Wrap(types.ErrValidation, "start date is after end date",
			goerr.V("start", start.Format(time.DateOnly)),
			goerr.V("end", end.Format(time.DateOnly)))
	}

	switch mode {
	case IntervalMonthly:
		var out []Interval
		for cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC); !cur.After(end); cur = cur.AddDate(0, 1, 0) {
			label := cur.Format(monthLabel)
			out = append(out, Interval{Start: label, End: label})
		}
		return out, nil

	case IntervalRanged:
		if start.Equal(end) {
			label := start.Format(dayLabel)
			return []Interval{{Start: label, End: label}}, nil
		}

		var out []Interval
		// Each window starts where the previous one ended, so a clamped day carries forward.
		for cur := start; cur.Before(end); {
			next := addMonths(cur, 1)
			if next.After(end) {
				next = end
			}
			out = append(out, Interval{Start: cur.Format(dayLabel), End: next.Format(dayLabel)})
			cur = next
		}
		return out, nil
	}

	return nil, goerr.Wrap(types.ErrValidation, "unknown interval mode", goerr.V("mode", mode))
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// addMonths adds n calendar months, clamping the day to the last day of the target month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
