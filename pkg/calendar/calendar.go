package calendar

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/klokku/markcal/internal/utils"
)

const DefaultLabel = "✅"

// maxTimestampMillis bounds the instants a mark may carry: ±100,000,000 days
// around the epoch, the range a serialized timestamp can be read back from.
const maxTimestampMillis = 8_640_000_000_000_000

var ErrInvalidArgument = errors.New("invalid argument")

type Granularity string

const (
	GranularityExact Granularity = "exact"
	GranularityHour  Granularity = "hour"
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
)

type Mark struct {
	Date   time.Time
	Label  string
	Reason *string
}

func (m Mark) Timestamp() int64 {
	return m.Date.UnixMilli()
}

type Config struct {
	DefaultLabel string
	Clock        utils.Clock
}

type MarkOptions struct {
	// Date defaults to now when nil.
	Date *time.Time
	// Label defaults to the calendar's default label when empty.
	Label  string
	Reason *string
}

type UnmarkOptions struct {
	// Date defaults to now when nil.
	Date *time.Time
	// Granularity defaults to GranularityDay when empty.
	Granularity Granularity
}

// Calendar tracks marks for one conversation and remembers the date it was
// last rendered around. It is not safe for concurrent use.
type Calendar struct {
	viewDate     time.Time
	marks        map[int64]Mark
	defaultLabel string
	clock        utils.Clock
}

func NewCalendar(cfg *Config) *Calendar {
	c := &Calendar{
		marks:        map[int64]Mark{},
		defaultLabel: DefaultLabel,
		clock:        utils.SystemClock{},
	}
	if cfg != nil {
		if cfg.DefaultLabel != "" {
			c.defaultLabel = cfg.DefaultLabel
		}
		if cfg.Clock != nil {
			c.clock = cfg.Clock
		}
	}
	c.viewDate = normalizeDate(c.clock.Now())
	return c
}

func (c *Calendar) DefaultLabel() string {
	return c.defaultLabel
}

func (c *Calendar) ViewDate() time.Time {
	return c.viewDate
}

func (c *Calendar) Mark(opts MarkOptions) error {
	date, err := c.resolveDate(opts.Date)
	if err != nil {
		return err
	}
	label := opts.Label
	if label == "" {
		label = c.defaultLabel
	}
	var reason *string
	if opts.Reason != nil {
		r := *opts.Reason
		reason = &r
	}
	ts := date.UnixMilli()
	c.marks[ts] = Mark{Date: time.UnixMilli(ts), Label: label, Reason: reason}
	return nil
}

func (c *Calendar) Unmark(opts UnmarkOptions) error {
	date, err := c.resolveDate(opts.Date)
	if err != nil {
		return err
	}
	granularity := opts.Granularity
	if granularity == "" {
		granularity = GranularityDay
	}
	matches, err := bucketMatcher(date, granularity)
	if err != nil {
		return err
	}
	for ts, mark := range c.marks {
		if matches(mark.Date) {
			delete(c.marks, ts)
		}
	}
	return nil
}

// GetMarked yields every mark in no particular order. The sequence reads a
// copy taken when it starts, so it may be ranged over repeatedly and while
// the calendar is being modified.
func (c *Calendar) GetMarked() iter.Seq[Mark] {
	return func(yield func(Mark) bool) {
		for _, mark := range slices.Collect(maps.Values(c.marks)) {
			if !yield(mark) {
				return
			}
		}
	}
}

// marksForDate returns the marks falling on date's local calendar day, oldest first.
func (c *Calendar) marksForDate(date time.Time) []Mark {
	target := normalizeDate(date)
	var marks []Mark
	for _, mark := range c.marks {
		if sameDay(mark.Date, target) {
			marks = append(marks, mark)
		}
	}
	sortMarks(marks)
	return marks
}

func (c *Calendar) resolveDate(date *time.Time) (time.Time, error) {
	if date == nil {
		return c.clock.Now(), nil
	}
	if err := validateInstant(*date); err != nil {
		return time.Time{}, err
	}
	return *date, nil
}

func validateInstant(t time.Time) error {
	if t.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidArgument)
	}
	ms := t.UnixMilli()
	if ms > maxTimestampMillis || ms < -maxTimestampMillis {
		return fmt.Errorf("%w: date %s out of range", ErrInvalidArgument, t)
	}
	return nil
}

func bucketMatcher(date time.Time, granularity Granularity) (func(time.Time) bool, error) {
	local := date.In(time.Local)
	year, month, day := local.Date()
	hour := local.Hour()
	switch granularity {
	case GranularityExact:
		ms := date.UnixMilli()
		return func(t time.Time) bool { return t.UnixMilli() == ms }, nil
	case GranularityHour:
		return func(t time.Time) bool {
			t = t.In(time.Local)
			y, m, d := t.Date()
			return y == year && m == month && d == day && t.Hour() == hour
		}, nil
	case GranularityDay:
		return func(t time.Time) bool { return sameDay(t, local) }, nil
	case GranularityMonth:
		return func(t time.Time) bool {
			y, m, _ := t.In(time.Local).Date()
			return y == year && m == month
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown granularity %q", ErrInvalidArgument, granularity)
	}
}

func normalizeDate(t time.Time) time.Time {
	y, m, d := t.In(time.Local).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(time.Local).Date()
	by, bm, bd := b.In(time.Local).Date()
	return ay == by && am == bm && ad == bd
}

func sortMarks(marks []Mark) {
	slices.SortFunc(marks, func(a, b Mark) int {
		return cmp.Compare(a.Timestamp(), b.Timestamp())
	})
}
