package event_bus

import "time"

type CalendarStored struct {
	CalendarId string
	Marks      int
	ViewDate   time.Time
}

type CalendarDeleted struct {
	CalendarId string
}
