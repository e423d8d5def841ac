package app

import (
	"github.com/gorilla/mux"
	"github.com/klokku/markcal/internal/config"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Calendars
	r.HandleFunc("/api/calendar", deps.ControlPanelHandler.CreateCalendar).Methods("POST")
	r.HandleFunc("/api/calendar/{calendarId}", deps.ControlPanelHandler.EnsureCalendar).Methods("PUT")
	r.HandleFunc("/api/calendar/{calendarId}", deps.ControlPanelHandler.GetCalendar).Methods("GET")
	r.HandleFunc("/api/calendar/{calendarId}", deps.ControlPanelHandler.DeleteCalendar).Methods("DELETE")

	// Views
	r.HandleFunc("/api/calendar/{calendarId}/month", deps.ControlPanelHandler.GetMonthView).Methods("GET")
	r.HandleFunc("/api/calendar/{calendarId}/day", deps.ControlPanelHandler.GetDayView).Methods("GET")
	r.HandleFunc("/api/calendar/{calendarId}/callback", deps.ControlPanelHandler.Callback).Methods("POST")

	// Marks
	r.HandleFunc("/api/calendar/{calendarId}/mark", deps.ControlPanelHandler.Mark).Methods("POST")
	r.HandleFunc("/api/calendar/{calendarId}/mark", deps.ControlPanelHandler.Unmark).Methods("DELETE")
}
