package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/markcal/internal/config"
	"github.com/klokku/markcal/internal/event_bus"
	"github.com/klokku/markcal/pkg/control_panel"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus *event_bus.EventBus

	CalendarStorage     control_panel.Storage
	ControlPanel        *control_panel.ControlPanelImpl
	ControlPanelHandler *control_panel.Handler
}

// BuildDependencies wires the control panel onto the configured storage backend.
// db may be nil when the memory backend is selected.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	subscribeAuditLog(deps.EventBus)

	if cfg.Storage.Backend == config.StoragePostgres && db != nil {
		deps.CalendarStorage = control_panel.NewPostgresStorage(db)
	} else {
		deps.CalendarStorage = control_panel.NewMemoryStorage()
	}
	log.Infof("calendar storage backend: %T", deps.CalendarStorage)

	deps.ControlPanel = control_panel.NewControlPanel(control_panel.Options{
		Storage:      deps.CalendarStorage,
		DefaultLabel: cfg.Calendar.DefaultLabel,
		Bus:          deps.EventBus,
	})
	deps.ControlPanelHandler = control_panel.NewHandler()

	return deps
}

func subscribeAuditLog(bus *event_bus.EventBus) {
	event_bus.SubscribeTyped(bus, event_bus.CalendarStoredType, func(e event_bus.EventT[event_bus.CalendarStored]) error {
		log.Debugf("calendar %s stored with %d marks, viewing %s", e.Data.CalendarId, e.Data.Marks, e.Data.ViewDate.Format("2006-01-02"))
		return nil
	})
	event_bus.SubscribeTyped(bus, event_bus.CalendarDeletedType, func(e event_bus.EventT[event_bus.CalendarDeleted]) error {
		log.Infof("calendar %s deleted", e.Data.CalendarId)
		return nil
	})
}
