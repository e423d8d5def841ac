package calendar

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findButton(markup Markup, match func(Button) bool) (Button, bool) {
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if match(button) {
				return button, true
			}
		}
	}
	return Button{}, false
}

func buttonWithCallback(markup Markup, data string) (Button, bool) {
	return findButton(markup, func(b Button) bool { return b.CallbackData == data })
}

func TestCalendar_GetMonthView(t *testing.T) {
	t.Run("renders navigation and marked days", func(t *testing.T) {
		c := NewCalendar(&Config{DefaultLabel: "★"})
		require.NoError(t, c.Mark(MarkOptions{
			Date:   ptr(localDate(2024, time.January, 10, 9, 30)),
			Label:  "★",
			Reason: ptr("Morning meeting"),
		}))

		markup := c.GetMonthView(ptr(localDate(2024, time.January, 1, 0, 0)))

		header := markup.InlineKeyboard[0]
		require.Len(t, header, 3)
		assert.Equal(t, prevButtonText, header[0].Text)
		assert.Equal(t, "calendar:month:2023-12", header[0].CallbackData)
		assert.Equal(t, "January 2024", header[1].Text)
		assert.Equal(t, "calendar:ignore", header[1].CallbackData)
		assert.Equal(t, nextButtonText, header[2].Text)
		assert.Equal(t, "calendar:month:2024-02", header[2].CallbackData)

		day, ok := buttonWithCallback(markup, "calendar:day:2024-01-10")
		require.True(t, ok)
		assert.Equal(t, "★ 10", day.Text)
	})

	t.Run("weekday header starts on Monday", func(t *testing.T) {
		c := NewCalendar(nil)
		markup := c.GetMonthView(ptr(localDate(2024, time.January, 1, 0, 0)))

		weekdays := markup.InlineKeyboard[1]
		texts := make([]string, 0, len(weekdays))
		for _, b := range weekdays {
			texts = append(texts, b.Text)
			assert.Equal(t, "calendar:ignore", b.CallbackData)
		}
		assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, texts)
	})

	testCases := []struct {
		name        string
		month       time.Time
		leading     int
		gridRows    int
		daysInMonth int
	}{
		// 2024-01-01 is a Monday.
		{"month starting on Monday", localDate(2024, time.January, 1, 0, 0), 0, 5, 31},
		// 2023-10-01 is a Sunday.
		{"month starting on Sunday", localDate(2023, time.October, 1, 0, 0), 6, 6, 31},
		// 2021-02-01 is a Monday and February 2021 has exactly four weeks.
		{"four-week February", localDate(2021, time.February, 1, 0, 0), 0, 4, 28},
		// 2024-02-01 is a Thursday.
		{"leap February", localDate(2024, time.February, 15, 0, 0), 3, 5, 29},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCalendar(nil)
			markup := c.GetMonthView(&tc.month)

			grid := markup.InlineKeyboard[2:]
			require.Len(t, grid, tc.gridRows)
			var cells []Button
			for _, row := range grid {
				assert.Len(t, row, 7)
				cells = append(cells, row...)
			}

			for i := 0; i < tc.leading; i++ {
				assert.Equal(t, " ", cells[i].Text)
				assert.Equal(t, "calendar:ignore", cells[i].CallbackData)
			}
			first := cells[tc.leading]
			assert.Equal(t, "1", first.Text)
			assert.Equal(t, fmt.Sprintf("calendar:day:%s-01", tc.month.Format("2006-01")), first.CallbackData)

			last := cells[tc.leading+tc.daysInMonth-1]
			assert.Equal(t, fmt.Sprint(tc.daysInMonth), last.Text)
			for _, trailing := range cells[tc.leading+tc.daysInMonth:] {
				assert.Equal(t, " ", trailing.Text)
			}
		})
	}

	t.Run("aggregates several marks with the earliest label first", func(t *testing.T) {
		c := NewCalendar(nil)
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 14, 15)), Label: "☆"}))
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 9, 30)), Label: "★"}))
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 20, 0)), Label: "●"}))

		markup := c.GetMonthView(ptr(localDate(2024, time.January, 1, 0, 0)))

		day, ok := buttonWithCallback(markup, "calendar:day:2024-01-10")
		require.True(t, ok)
		assert.Equal(t, "★ 10 (+2)", day.Text)
	})

	t.Run("sets and normalizes the view date", func(t *testing.T) {
		c := NewCalendar(nil)
		c.GetMonthView(ptr(localDate(2024, time.May, 17, 13, 45)))
		assert.Equal(t, localDate(2024, time.May, 17, 0, 0), c.ViewDate())

		again := c.GetMonthView(nil)
		assert.Equal(t, "May 2024", again.InlineKeyboard[0][1].Text)
	})

	t.Run("is idempotent", func(t *testing.T) {
		c := NewCalendar(nil)
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 9, 30))}))
		date := localDate(2024, time.January, 1, 0, 0)

		assert.Equal(t, c.GetMonthView(&date), c.GetMonthView(&date))
	})

	t.Run("year boundary navigation", func(t *testing.T) {
		c := NewCalendar(nil)
		markup := c.GetMonthView(ptr(localDate(2023, time.December, 31, 0, 0)))

		assert.Equal(t, "calendar:month:2023-11", markup.InlineKeyboard[0][0].CallbackData)
		assert.Equal(t, "calendar:month:2024-01", markup.InlineKeyboard[0][2].CallbackData)
	})
}

func TestCalendar_GetDayView(t *testing.T) {
	t.Run("renders day details for marked dates", func(t *testing.T) {
		c := NewCalendar(&Config{DefaultLabel: "★"})
		markDate := localDate(2024, time.January, 10, 9, 30)
		require.NoError(t, c.Mark(MarkOptions{Date: &markDate, Label: "★", Reason: ptr("Morning meeting")}))

		rows := c.GetDayView(ptr(localDate(2024, time.January, 10, 0, 0))).InlineKeyboard

		require.Len(t, rows, 3)
		assert.Equal(t, "calendar:day:2024-01-09", rows[0][0].CallbackData)
		assert.Equal(t, "Wednesday, January 10, 2024", rows[0][1].Text)
		assert.Equal(t, "calendar:day:2024-01-11", rows[0][2].CallbackData)

		require.Len(t, rows[1], 1)
		assert.Equal(t, fmt.Sprintf("calendar:mark:%d", markDate.UnixMilli()), rows[1][0].CallbackData)
		assert.Equal(t, "09:30 ★ • Morning meeting", rows[1][0].Text)

		back := rows[len(rows)-1]
		require.Len(t, back, 1)
		assert.Equal(t, "Back to month", back[0].Text)
		assert.Equal(t, "calendar:month:2024-01", back[0].CallbackData)
	})

	t.Run("shows a placeholder when no marks exist for a day", func(t *testing.T) {
		c := NewCalendar(nil)
		rows := c.GetDayView(ptr(localDate(2024, time.January, 15, 0, 0))).InlineKeyboard

		require.Len(t, rows, 3)
		assert.Equal(t, []Button{{Text: "No marks", CallbackData: "calendar:ignore"}}, rows[1])
	})

	t.Run("lists marks in chronological order", func(t *testing.T) {
		c := NewCalendar(nil)
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 14, 15)), Label: "B"}))
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 9, 30)), Label: "A"}))

		rows := c.GetDayView(ptr(localDate(2024, time.January, 10, 0, 0))).InlineKeyboard

		require.Len(t, rows, 4)
		assert.Equal(t, "09:30 A", rows[1][0].Text)
		assert.Equal(t, "14:15 B", rows[2][0].Text)
	})

	t.Run("truncates long reasons", func(t *testing.T) {
		c := NewCalendar(nil)
		reason := strings.Repeat("é", 30)
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 9, 30)), Label: "★", Reason: &reason}))

		rows := c.GetDayView(ptr(localDate(2024, time.January, 10, 0, 0))).InlineKeyboard

		assert.Equal(t, "09:30 ★ • "+strings.Repeat("é", 23)+"…", rows[1][0].Text)
	})

	t.Run("uses and updates the view date", func(t *testing.T) {
		c := NewCalendar(nil)
		c.GetDayView(ptr(localDate(2024, time.March, 31, 22, 0)))
		assert.Equal(t, localDate(2024, time.March, 31, 0, 0), c.ViewDate())

		rows := c.GetDayView(nil).InlineKeyboard
		assert.Equal(t, "calendar:day:2024-03-30", rows[0][0].CallbackData)
		assert.Equal(t, "calendar:day:2024-04-01", rows[0][2].CallbackData)
		assert.Equal(t, "calendar:month:2024-03", rows[len(rows)-1][0].CallbackData)
	})

	t.Run("is idempotent", func(t *testing.T) {
		c := NewCalendar(nil)
		require.NoError(t, c.Mark(MarkOptions{Date: ptr(localDate(2024, time.January, 10, 9, 30))}))
		date := localDate(2024, time.January, 10, 0, 0)

		assert.Equal(t, c.GetDayView(&date), c.GetDayView(&date))
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 24))
	assert.Equal(t, strings.Repeat("a", 24), truncate(strings.Repeat("a", 24), 24))
	assert.Equal(t, strings.Repeat("a", 23)+"…", truncate(strings.Repeat("a", 25), 24))
}
