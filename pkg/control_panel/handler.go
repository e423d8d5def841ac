package control_panel

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/klokku/markcal/internal/rest"
	"github.com/klokku/markcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

// Handler exposes calendars over HTTP. It reads the control panel installed
// by Middleware, and persists the calendar after every call that renders or
// mutates it, since rendering moves the view date.
type Handler struct{}

type CreateCalendarDTO struct {
	DefaultLabel string `json:"defaultLabel"`
}

type CreatedCalendarDTO struct {
	Id       string            `json:"id"`
	Calendar calendar.Snapshot `json:"calendar"`
}

type MarkDTO struct {
	Date   *time.Time `json:"date"`
	Label  string     `json:"label"`
	Reason *string    `json:"reason"`
}

type CallbackDTO struct {
	Data string `json:"data"`
}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, uuid.NewString(), http.StatusCreated)
}

func (h *Handler) EnsureCalendar(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, mux.Vars(r)["calendarId"], http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, id string, status int) {
	cp, ok := controlPanel(w, r)
	if !ok {
		return
	}
	var dto CreateCalendarDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && !errors.Is(err, io.EOF) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	var cfg *calendar.Config
	if dto.DefaultLabel != "" {
		cfg = &calendar.Config{DefaultLabel: dto.DefaultLabel}
	}
	cal, err := cp.Create(r.Context(), id, cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, status, CreatedCalendarDTO{Id: id, Calendar: cal.ToJSON()})
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	_, cal, _, ok := loadCalendar(w, r)
	if !ok {
		return
	}
	rest.WriteJSON(w, http.StatusOK, cal.ToJSON())
}

func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	cp, ok := controlPanel(w, r)
	if !ok {
		return
	}
	if err := cp.Delete(r.Context(), mux.Vars(r)["calendarId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetMonthView(w http.ResponseWriter, r *http.Request) {
	date, err := optionalDate(r, "date", "2006-01")
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be in YYYY-MM format")
		return
	}
	h.render(w, r, func(cal *calendar.Calendar) calendar.Markup {
		return cal.GetMonthView(date)
	})
}

func (h *Handler) GetDayView(w http.ResponseWriter, r *http.Request) {
	date, err := optionalDate(r, "date", time.DateOnly)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be in YYYY-MM-DD format")
		return
	}
	h.render(w, r, func(cal *calendar.Calendar) calendar.Markup {
		return cal.GetDayView(date)
	})
}

// Callback routes a button's callback data back into the matching view.
// Ignore tokens answer 204 without touching the calendar.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	var dto CallbackDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	cb, err := calendar.ParseCallback(dto.Data)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid callback data", err.Error())
		return
	}
	log.Debugf("dispatching %s callback", cb.Action)

	var view func(cal *calendar.Calendar) calendar.Markup
	switch cb.Action {
	case calendar.ActionIgnore:
		w.WriteHeader(http.StatusNoContent)
		return
	case calendar.ActionMonth:
		month, _ := cb.Month()
		view = func(cal *calendar.Calendar) calendar.Markup { return cal.GetMonthView(&month) }
	case calendar.ActionDay:
		day, _ := cb.Day()
		view = func(cal *calendar.Calendar) calendar.Markup { return cal.GetDayView(&day) }
	case calendar.ActionMark:
		ts, _ := cb.MarkTimestamp()
		markDay := time.UnixMilli(ts)
		view = func(cal *calendar.Calendar) calendar.Markup { return cal.GetDayView(&markDay) }
	}
	h.render(w, r, view)
}

func (h *Handler) Mark(w http.ResponseWriter, r *http.Request) {
	var dto MarkDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	h.mutate(w, r, http.StatusCreated, func(cal *calendar.Calendar) error {
		return cal.Mark(calendar.MarkOptions{Date: dto.Date, Label: dto.Label, Reason: dto.Reason})
	})
}

func (h *Handler) Unmark(w http.ResponseWriter, r *http.Request) {
	date, err := optionalDate(r, "date", time.RFC3339)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid date format", "'date' must be in RFC3339 format")
		return
	}
	granularity := calendar.Granularity(r.URL.Query().Get("granularity"))
	h.mutate(w, r, http.StatusOK, func(cal *calendar.Calendar) error {
		return cal.Unmark(calendar.UnmarkOptions{Date: date, Granularity: granularity})
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, view func(cal *calendar.Calendar) calendar.Markup) {
	cp, cal, id, ok := loadCalendar(w, r)
	if !ok {
		return
	}
	markup := view(cal)
	if _, err := cp.Set(r.Context(), id, cal); err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, markup)
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, status int, change func(cal *calendar.Calendar) error) {
	cp, cal, id, ok := loadCalendar(w, r)
	if !ok {
		return
	}
	if err := change(cal); err != nil {
		writeServiceError(w, err)
		return
	}
	if _, err := cp.Set(r.Context(), id, cal); err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, status, cal.ToJSON())
}

func controlPanel(w http.ResponseWriter, r *http.Request) (ControlPanel, bool) {
	cp, err := FromContext(r.Context())
	if err != nil {
		log.Errorf("calendar handler used without control panel middleware: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Calendar storage unavailable", "")
		return nil, false
	}
	return cp, true
}

func loadCalendar(w http.ResponseWriter, r *http.Request) (ControlPanel, *calendar.Calendar, string, bool) {
	cp, ok := controlPanel(w, r)
	if !ok {
		return nil, nil, "", false
	}
	id := mux.Vars(r)["calendarId"]
	cal, err := cp.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return nil, nil, "", false
	}
	if cal == nil {
		writeServiceError(w, ErrCalendarNotFound)
		return nil, nil, "", false
	}
	return cp, cal, id, true
}

func optionalDate(r *http.Request, param string, layout string) (*time.Time, error) {
	value := r.URL.Query().Get(param)
	if value == "" {
		return nil, nil
	}
	date, err := time.ParseInLocation(layout, value, time.Local)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCalendarNotFound):
		rest.WriteError(w, http.StatusNotFound, "Calendar not found", "")
	case errors.Is(err, calendar.ErrInvalidArgument):
		rest.WriteError(w, http.StatusBadRequest, "Invalid argument", err.Error())
	default:
		log.Errorf("calendar request failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Internal error", err.Error())
	}
}
