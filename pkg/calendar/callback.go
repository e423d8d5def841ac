package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	CallbackPrefix = "calendar"
	// MaxCallbackLength is the largest callback_data Telegram accepts.
	MaxCallbackLength = 64
)

const (
	monthLayout = "2006-01"
	dayLayout   = "2006-01-02"
)

var ErrInvalidCallback = errors.New("invalid callback data")

type Action string

const (
	ActionMonth  Action = "month"
	ActionDay    Action = "day"
	ActionMark   Action = "mark"
	ActionIgnore Action = "ignore"
)

// BuildCallback encodes an action and optional payload as "calendar:<action>[:<payload>]".
// Anything past MaxCallbackLength bytes is cut off.
func BuildCallback(action Action, payload string) string {
	data := CallbackPrefix + ":" + string(action)
	if payload != "" {
		data += ":" + payload
	}
	if len(data) > MaxCallbackLength {
		return data[:MaxCallbackLength]
	}
	return data
}

func monthCallback(t time.Time) string {
	return BuildCallback(ActionMonth, t.Format(monthLayout))
}

func dayCallback(t time.Time) string {
	return BuildCallback(ActionDay, t.Format(dayLayout))
}

func markCallback(m Mark) string {
	return BuildCallback(ActionMark, strconv.FormatInt(m.Timestamp(), 10))
}

func ignoreCallback() string {
	return BuildCallback(ActionIgnore, "")
}

// Callback is a decoded callback_data token.
type Callback struct {
	Action  Action
	Payload string
}

func ParseCallback(data string) (Callback, error) {
	prefix, rest, ok := strings.Cut(data, ":")
	if !ok || prefix != CallbackPrefix {
		return Callback{}, fmt.Errorf("%w: %q", ErrInvalidCallback, data)
	}
	action, payload, _ := strings.Cut(rest, ":")
	cb := Callback{Action: Action(action), Payload: payload}
	var err error
	switch cb.Action {
	case ActionIgnore:
		if payload != "" {
			return Callback{}, fmt.Errorf("%w: ignore carries no payload", ErrInvalidCallback)
		}
		return cb, nil
	case ActionMonth:
		_, err = cb.Month()
	case ActionDay:
		_, err = cb.Day()
	case ActionMark:
		_, err = cb.MarkTimestamp()
	default:
		return Callback{}, fmt.Errorf("%w: unknown action %q", ErrInvalidCallback, action)
	}
	if err != nil {
		return Callback{}, err
	}
	return cb, nil
}

// Month returns local midnight on the first day of the month a month token points at.
func (cb Callback) Month() (time.Time, error) {
	if cb.Action != ActionMonth {
		return time.Time{}, fmt.Errorf("%w: %s token has no month", ErrInvalidCallback, cb.Action)
	}
	year, month, err := parseYearMonth(cb.Payload)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.Local), nil
}

// Day returns local midnight of the day a day token points at.
func (cb Callback) Day() (time.Time, error) {
	if cb.Action != ActionDay {
		return time.Time{}, fmt.Errorf("%w: %s token has no day", ErrInvalidCallback, cb.Action)
	}
	yearMonth, dayText, ok := cutLast(cb.Payload)
	if !ok || len(dayText) != 2 || !isDigits(dayText) {
		return time.Time{}, fmt.Errorf("%w: malformed day %q", ErrInvalidCallback, cb.Payload)
	}
	year, month, err := parseYearMonth(yearMonth)
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.Atoi(dayText)
	if err != nil || day < 1 {
		return time.Time{}, fmt.Errorf("%w: malformed day %q", ErrInvalidCallback, cb.Payload)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: day out of range in %q", ErrInvalidCallback, cb.Payload)
	}
	return t, nil
}

func (cb Callback) MarkTimestamp() (int64, error) {
	if cb.Action != ActionMark {
		return 0, fmt.Errorf("%w: %s token has no timestamp", ErrInvalidCallback, cb.Action)
	}
	ts, err := strconv.ParseInt(cb.Payload, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	return ts, nil
}

// parseYearMonth reads the "2006-01" layout without capping the year at four
// digits, so tokens for any date a mark can hold parse back.
func parseYearMonth(text string) (int, time.Month, error) {
	yearText, monthText, ok := cutLast(text)
	digits := strings.TrimPrefix(yearText, "-")
	if !ok || len(monthText) != 2 || !isDigits(monthText) || len(digits) < 4 || !isDigits(digits) {
		return 0, 0, fmt.Errorf("%w: malformed month %q", ErrInvalidCallback, text)
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: malformed year %q", ErrInvalidCallback, text)
	}
	month, err := strconv.Atoi(monthText)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: month out of range in %q", ErrInvalidCallback, text)
	}
	return year, time.Month(month), nil
}

// cutLast splits text around its last '-', ignoring a leading sign.
func cutLast(text string) (string, string, bool) {
	i := strings.LastIndexByte(text, '-')
	if i <= 0 {
		return "", "", false
	}
	return text[:i], text[i+1:], true
}

func isDigits(text string) bool {
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return text != ""
}
