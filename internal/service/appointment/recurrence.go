package appointment

import (
	"sort"
	"time"
)

// Recurrence frequencies.
const (
	FreqDaily   = "daily"
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
)

// RecurrenceInput describes a repeating booking.
type RecurrenceInput struct {
	Frequency  string
	Interval   int
	Count      int
	DaysOfWeek []int // 0=Sunday .. 6=Saturday, weekly only
}

func ValidFrequency(f string) bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqMonthly:
		return true
	}
	return false
}

// ExpandRecurrence turns a base date and a recurrence into the full list of
// occurrence dates, base first. Weekly recurrences with daysOfWeek walk the
// chosen weekdays from a cursor; a weekday landing on the cursor itself
// resolves to the following week.
func ExpandRecurrence(base time.Time, r RecurrenceInput) []time.Time {
	count := r.Count
	if count < 1 {
		count = 1
	}
	interval := r.Interval
	if interval < 1 {
		interval = 1
	}

	dates := make([]time.Time, 0, count)
	dates = append(dates, base)
	cursor := base

	switch r.Frequency {
	case FreqDaily:
		for len(dates) < count {
			cursor = cursor.AddDate(0, 0, interval)
			dates = append(dates, cursor)
		}
	case FreqMonthly:
		for len(dates) < count {
			cursor = cursor.AddDate(0, interval, 0)
			dates = append(dates, cursor)
		}
	case FreqWeekly:
		if len(r.DaysOfWeek) == 0 {
			for len(dates) < count {
				cursor = cursor.AddDate(0, 0, 7*interval)
				dates = append(dates, cursor)
			}
			break
		}

		days := append([]int(nil), r.DaysOfWeek...)
		sort.Ints(days)
		for len(dates) < count {
			for _, target := range days {
				delta := (target - int(cursor.Weekday())) % 7
				if delta <= 0 {
					delta += 7
				}
				cursor = cursor.AddDate(0, 0, delta)
				if len(dates) == count {
					break
				}
				dates = append(dates, cursor)
			}
			cursor = cursor.AddDate(0, 0, (interval-1)*7)
		}
	}

	return dates
}
