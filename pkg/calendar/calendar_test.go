package calendar

import (
	"slices"
	"testing"
	"time"

	"github.com/klokku/markcal/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localDate(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.Local)
}

func ptr[T any](v T) *T {
	return &v
}

func collectMarks(c *Calendar) []Mark {
	marks := slices.Collect(c.GetMarked())
	sortMarks(marks)
	return marks
}

func TestNewCalendar(t *testing.T) {
	t.Run("uses the default label when none is configured", func(t *testing.T) {
		c := NewCalendar(nil)
		assert.Equal(t, DefaultLabel, c.DefaultLabel())
	})

	t.Run("starts with today's midnight as view date", func(t *testing.T) {
		clock := &utils.MockClock{FixedNow: localDate(2024, time.March, 5, 17, 45)}
		c := NewCalendar(&Config{DefaultLabel: "★", Clock: clock})

		assert.Equal(t, "★", c.DefaultLabel())
		assert.Equal(t, localDate(2024, time.March, 5, 0, 0), c.ViewDate())
		assert.Empty(t, collectMarks(c))
	})
}

func TestCalendar_Mark(t *testing.T) {
	t.Run("defaults to now and the default label", func(t *testing.T) {
		clock := &utils.MockClock{FixedNow: localDate(2024, time.January, 10, 9, 30)}
		c := NewCalendar(&Config{DefaultLabel: "★", Clock: clock})

		require.NoError(t, c.Mark(MarkOptions{}))

		marks := collectMarks(c)
		require.Len(t, marks, 1)
		assert.Equal(t, clock.Now().UnixMilli(), marks[0].Timestamp())
		assert.Equal(t, "★", marks[0].Label)
		assert.Nil(t, marks[0].Reason)
	})

	t.Run("same instant overwrites the previous mark", func(t *testing.T) {
		c := NewCalendar(nil)
		at := localDate(2024, time.January, 10, 9, 30)

		require.NoError(t, c.Mark(MarkOptions{Date: &at, Label: "A"}))
		require.NoError(t, c.Mark(MarkOptions{Date: &at, Label: "B", Reason: ptr("second")}))

		marks := collectMarks(c)
		require.Len(t, marks, 1)
		assert.Equal(t, "B", marks[0].Label)
		assert.Equal(t, "second", *marks[0].Reason)
	})

	t.Run("keys marks by millisecond", func(t *testing.T) {
		c := NewCalendar(nil)
		first := localDate(2024, time.January, 10, 9, 30).Add(100 * time.Microsecond)
		second := localDate(2024, time.January, 10, 9, 30).Add(900 * time.Microsecond)

		require.NoError(t, c.Mark(MarkOptions{Date: &first, Label: "A"}))
		require.NoError(t, c.Mark(MarkOptions{Date: &second, Label: "B"}))

		marks := collectMarks(c)
		require.Len(t, marks, 1)
		assert.Equal(t, "B", marks[0].Label)
	})

	t.Run("rejects an unset date", func(t *testing.T) {
		c := NewCalendar(nil)
		err := c.Mark(MarkOptions{Date: &time.Time{}})
		assert.ErrorIs(t, err, ErrInvalidArgument)
		assert.Empty(t, collectMarks(c))
	})

	t.Run("rejects a date outside the representable range", func(t *testing.T) {
		c := NewCalendar(nil)
		far := time.Date(300000, time.January, 1, 0, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, c.Mark(MarkOptions{Date: &far}), ErrInvalidArgument)
	})

	t.Run("copies the reason", func(t *testing.T) {
		c := NewCalendar(nil)
		at := localDate(2024, time.January, 10, 9, 30)
		reason := "original"
		require.NoError(t, c.Mark(MarkOptions{Date: &at, Reason: &reason}))
		reason = "changed"

		assert.Equal(t, "original", *collectMarks(c)[0].Reason)
	})
}

func TestCalendar_Unmark(t *testing.T) {
	markedAt := localDate(2024, time.January, 10, 9, 30)

	testCases := []struct {
		name        string
		date        time.Time
		granularity Granularity
		wantRemoved bool
	}{
		{"day removes marks on the same day", localDate(2024, time.January, 10, 0, 0), GranularityDay, true},
		{"default granularity is day", localDate(2024, time.January, 10, 23, 59), "", true},
		{"day keeps marks on other days", localDate(2024, time.January, 11, 9, 30), GranularityDay, false},
		{"hour removes marks in the same hour", localDate(2024, time.January, 10, 9, 0), GranularityHour, true},
		{"hour keeps marks in other hours", localDate(2024, time.January, 10, 14, 0), GranularityHour, false},
		{"exact removes the same instant", markedAt, GranularityExact, true},
		{"exact keeps a different minute", localDate(2024, time.January, 10, 9, 31), GranularityExact, false},
		{"month removes marks in the same month", localDate(2024, time.January, 31, 12, 0), GranularityMonth, true},
		{"month keeps marks in other years", localDate(2023, time.January, 10, 9, 30), GranularityMonth, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCalendar(nil)
			require.NoError(t, c.Mark(MarkOptions{Date: &markedAt}))

			require.NoError(t, c.Unmark(UnmarkOptions{Date: &tc.date, Granularity: tc.granularity}))

			if tc.wantRemoved {
				assert.Empty(t, collectMarks(c))
			} else {
				assert.Len(t, collectMarks(c), 1)
			}
		})
	}

	t.Run("removes every mark of the bucket and nothing else", func(t *testing.T) {
		c := NewCalendar(nil)
		for _, at := range []time.Time{
			localDate(2024, time.January, 10, 9, 30),
			localDate(2024, time.January, 10, 14, 15),
			localDate(2024, time.January, 11, 8, 0),
		} {
			require.NoError(t, c.Mark(MarkOptions{Date: &at}))
		}

		day := localDate(2024, time.January, 10, 0, 0)
		require.NoError(t, c.Unmark(UnmarkOptions{Date: &day}))

		marks := collectMarks(c)
		require.Len(t, marks, 1)
		assert.Equal(t, localDate(2024, time.January, 11, 8, 0).UnixMilli(), marks[0].Timestamp())
	})

	t.Run("no matching marks is a no-op", func(t *testing.T) {
		c := NewCalendar(nil)
		assert.NoError(t, c.Unmark(UnmarkOptions{}))
	})

	t.Run("defaults to today", func(t *testing.T) {
		clock := &utils.MockClock{FixedNow: localDate(2024, time.January, 10, 18, 0)}
		c := NewCalendar(&Config{Clock: clock})
		require.NoError(t, c.Mark(MarkOptions{Date: &markedAt}))

		require.NoError(t, c.Unmark(UnmarkOptions{}))
		assert.Empty(t, collectMarks(c))
	})

	t.Run("rejects an unknown granularity", func(t *testing.T) {
		c := NewCalendar(nil)
		err := c.Unmark(UnmarkOptions{Date: &markedAt, Granularity: "week"})
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCalendar_GetMarked(t *testing.T) {
	c := NewCalendar(nil)
	first := localDate(2024, time.January, 10, 9, 30)
	second := localDate(2024, time.February, 1, 8, 0)
	require.NoError(t, c.Mark(MarkOptions{Date: &first}))
	require.NoError(t, c.Mark(MarkOptions{Date: &second}))

	seq := c.GetMarked()
	assert.Len(t, slices.Collect(seq), 2)
	assert.Len(t, slices.Collect(seq), 2, "sequence can be ranged over again")

	t.Run("tolerates unmarking while iterating", func(t *testing.T) {
		seen := 0
		for mark := range c.GetMarked() {
			seen++
			require.NoError(t, c.Unmark(UnmarkOptions{Date: &mark.Date, Granularity: GranularityExact}))
		}
		assert.Equal(t, 2, seen)
		assert.Empty(t, collectMarks(c))
	})
}

func TestCalendar_marksForDate(t *testing.T) {
	c := NewCalendar(nil)
	for _, at := range []time.Time{
		localDate(2024, time.January, 10, 14, 15),
		localDate(2024, time.January, 10, 9, 30),
		localDate(2024, time.January, 11, 0, 0),
		localDate(2024, time.January, 9, 23, 59),
	} {
		require.NoError(t, c.Mark(MarkOptions{Date: &at}))
	}

	marks := c.marksForDate(localDate(2024, time.January, 10, 12, 0))

	require.Len(t, marks, 2)
	assert.Equal(t, localDate(2024, time.January, 10, 9, 30).UnixMilli(), marks[0].Timestamp())
	assert.Equal(t, localDate(2024, time.January, 10, 14, 15).UnixMilli(), marks[1].Timestamp())
}
