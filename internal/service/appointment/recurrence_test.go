package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func TestExpandRecurrenceDaily(t *testing.T) {
	got := ExpandRecurrence(date(2026, time.March, 2), RecurrenceInput{
		Frequency: FreqDaily,
		Interval:  2,
		Count:     3,
	})

	require.Len(t, got, 3)
	assert.Equal(t, date(2026, time.March, 2), got[0])
	assert.Equal(t, date(2026, time.March, 4), got[1])
	assert.Equal(t, date(2026, time.March, 6), got[2])
}

func TestExpandRecurrenceMonthly(t *testing.T) {
	got := ExpandRecurrence(date(2026, time.January, 15), RecurrenceInput{
		Frequency: FreqMonthly,
		Interval:  1,
		Count:     3,
	})

	require.Len(t, got, 3)
	assert.Equal(t, date(2026, time.February, 15), got[1])
	assert.Equal(t, date(2026, time.March, 15), got[2])
}

func TestExpandRecurrenceWeeklySimple(t *testing.T) {
	// 2026-01-05 is a Monday.
	got := ExpandRecurrence(date(2026, time.January, 5), RecurrenceInput{
		Frequency: FreqWeekly,
		Interval:  2,
		Count:     3,
	})

	require.Len(t, got, 3)
	assert.Equal(t, date(2026, time.January, 19), got[1])
	assert.Equal(t, date(2026, time.February, 2), got[2])
}

func TestExpandRecurrenceWeeklyDaysOfWeek(t *testing.T) {
	// Base is a Monday; Monday and Wednesday selected. The base date counts
	// as the first occurrence, so the Monday slot resolves to next week.
	got := ExpandRecurrence(date(2026, time.January, 5), RecurrenceInput{
		Frequency:  FreqWeekly,
		Interval:   1,
		Count:      4,
		DaysOfWeek: []int{3, 1}, // order must not matter
	})

	require.Len(t, got, 4)
	assert.Equal(t, date(2026, time.January, 5), got[0])
	assert.Equal(t, date(2026, time.January, 12), got[1], "same weekday moves a full week out")
	assert.Equal(t, date(2026, time.January, 14), got[2])
	assert.Equal(t, date(2026, time.January, 19), got[3])
}

func TestExpandRecurrenceWeeklyDaysOfWeekInterval(t *testing.T) {
	// Fortnightly on Fridays, starting Monday 2026-01-05.
	got := ExpandRecurrence(date(2026, time.January, 5), RecurrenceInput{
		Frequency:  FreqWeekly,
		Interval:   2,
		Count:      3,
		DaysOfWeek: []int{5},
	})

	require.Len(t, got, 3)
	assert.Equal(t, date(2026, time.January, 9), got[1])
	assert.Equal(t, date(2026, time.January, 23), got[2])
}

func TestExpandRecurrenceDefaults(t *testing.T) {
	base := date(2026, time.June, 1)

	got := ExpandRecurrence(base, RecurrenceInput{Frequency: FreqDaily})
	require.Len(t, got, 1)
	assert.Equal(t, base, got[0])

	got = ExpandRecurrence(base, RecurrenceInput{Frequency: FreqDaily, Interval: -3, Count: 2})
	require.Len(t, got, 2)
	assert.Equal(t, base.AddDate(0, 0, 1), got[1], "bad interval falls back to 1")
}

func TestValidFrequency(t *testing.T) {
	assert.True(t, ValidFrequency(FreqDaily))
	assert.True(t, ValidFrequency(FreqWeekly))
	assert.True(t, ValidFrequency(FreqMonthly))
	assert.False(t, ValidFrequency("yearly"))
	assert.False(t, ValidFrequency(""))
}
