package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	prevButtonText   = "◀️"
	nextButtonText   = "▶️"
	blankCellText    = " "
	noMarksText      = "No marks"
	backToMonthText  = "Back to month"
	reasonMaxLength  = 24
	monthHeaderStyle = "January 2006"
	dayHeaderStyle   = "Monday, January 2, 2006"
	markTimeStyle    = "15:04"
)

var weekdayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Button is an inline keyboard button. Decorative buttons carry the ignore token.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

type Markup struct {
	InlineKeyboard [][]Button `json:"inline_keyboard"`
}

// GetMonthView renders the month containing date, or the current view date
// when date is nil. The rendered date becomes the new view date.
func (c *Calendar) GetMonthView(date *time.Time) Markup {
	if date != nil {
		c.viewDate = *date
	}
	c.viewDate = normalizeDate(c.viewDate)

	current := c.viewDate
	year, month, _ := current.Date()
	prevMonth := time.Date(year, month-1, 1, 0, 0, 0, 0, time.Local)
	nextMonth := time.Date(year, month+1, 1, 0, 0, 0, 0, time.Local)

	rows := make([][]Button, 0, 8)
	rows = append(rows, []Button{
		{Text: prevButtonText, CallbackData: monthCallback(prevMonth)},
		{Text: current.Format(monthHeaderStyle), CallbackData: ignoreCallback()},
		{Text: nextButtonText, CallbackData: monthCallback(nextMonth)},
	})

	weekdays := make([]Button, 0, len(weekdayLabels))
	for _, label := range weekdayLabels {
		weekdays = append(weekdays, Button{Text: label, CallbackData: ignoreCallback()})
	}
	rows = append(rows, weekdays)

	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
	// time.Weekday counts from Sunday; shift so Monday is column 0.
	offset := (int(firstOfMonth.Weekday()) + 6) % 7
	totalCells := (offset + daysInMonth + 6) / 7 * 7

	day := 1
	var row []Button
	for cell := 0; cell < totalCells; cell++ {
		if cell < offset || day > daysInMonth {
			row = append(row, Button{Text: blankCellText, CallbackData: ignoreCallback()})
		} else {
			dateForDay := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
			row = append(row, Button{
				Text:         dayCellText(day, c.marksForDate(dateForDay)),
				CallbackData: dayCallback(dateForDay),
			})
			day++
		}
		if len(row) == 7 {
			rows = append(rows, row)
			row = nil
		}
	}

	return Markup{InlineKeyboard: rows}
}

func dayCellText(day int, marks []Mark) string {
	switch len(marks) {
	case 0:
		return strconv.Itoa(day)
	case 1:
		return fmt.Sprintf("%s %d", marks[0].Label, day)
	default:
		return fmt.Sprintf("%s %d (+%d)", marks[0].Label, day, len(marks)-1)
	}
}

// GetDayView renders the marks of one day, or of the current view date when
// date is nil. The rendered day becomes the new view date.
func (c *Calendar) GetDayView(date *time.Time) Markup {
	target := c.viewDate
	if date != nil {
		target = *date
	}
	target = normalizeDate(target)
	c.viewDate = target

	year, month, day := target.Date()
	prevDay := time.Date(year, month, day-1, 0, 0, 0, 0, time.Local)
	nextDay := time.Date(year, month, day+1, 0, 0, 0, 0, time.Local)

	rows := [][]Button{{
		{Text: prevButtonText, CallbackData: dayCallback(prevDay)},
		{Text: target.Format(dayHeaderStyle), CallbackData: ignoreCallback()},
		{Text: nextButtonText, CallbackData: dayCallback(nextDay)},
	}}

	marks := c.marksForDate(target)
	if len(marks) == 0 {
		rows = append(rows, []Button{{Text: noMarksText, CallbackData: ignoreCallback()}})
	}
	for _, mark := range marks {
		rows = append(rows, []Button{{Text: markRowText(mark), CallbackData: markCallback(mark)}})
	}

	rows = append(rows, []Button{{Text: backToMonthText, CallbackData: monthCallback(target)}})
	return Markup{InlineKeyboard: rows}
}

func markRowText(mark Mark) string {
	text := mark.Date.In(time.Local).Format(markTimeStyle) + " " + mark.Label
	if mark.Reason != nil && *mark.Reason != "" {
		text += " • " + truncate(*mark.Reason, reasonMaxLength)
	}
	return strings.TrimSpace(text)
}

// truncate shortens value to at most maxLength runes, ending in an ellipsis when cut.
func truncate(value string, maxLength int) string {
	runes := []rune(value)
	if len(runes) <= maxLength {
		return value
	}
	return string(runes[:max(0, maxLength-1)]) + "…"
}
