package control_panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/klokku/markcal/internal/event_bus"
	"github.com/klokku/markcal/pkg/calendar"
	log "github.com/sirupsen/logrus"
)

var ErrCalendarNotFound = errors.New("calendar not found")

// Storage persists opaque values by id. Read answers (nil, nil) for unknown ids.
type Storage interface {
	Read(ctx context.Context, id string) (any, error)
	Write(ctx context.Context, id string, value any) error
	Delete(ctx context.Context, id string) error
}

type ControlPanel interface {
	// Get returns the stored calendar, or nil when it is absent or cannot be revived.
	Get(ctx context.Context, id string) (*calendar.Calendar, error)
	// Set stores cal under id unconditionally.
	Set(ctx context.Context, id string, cal *calendar.Calendar) (*calendar.Calendar, error)
	// Create returns the existing calendar, or stores and returns a new one.
	Create(ctx context.Context, id string, cfg *calendar.Config) (*calendar.Calendar, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	// Storage defaults to a fresh MemoryStorage.
	Storage Storage
	// DefaultLabel applies to created calendars whose config sets no label.
	DefaultLabel string
	// Bus, when set, receives calendar.stored and calendar.deleted events.
	Bus *event_bus.EventBus
}

// ControlPanelImpl proxies calendar reads and writes to a Storage. Create reads
// then writes without a lock, so concurrent creates of one id race and the
// last write wins.
type ControlPanelImpl struct {
	storage      Storage
	defaultLabel string
	bus          *event_bus.EventBus
}

func NewControlPanel(opts Options) *ControlPanelImpl {
	storage := opts.Storage
	if storage == nil {
		storage = NewMemoryStorage()
	}
	return &ControlPanelImpl{
		storage:      storage,
		defaultLabel: opts.DefaultLabel,
		bus:          opts.Bus,
	}
}

func (p *ControlPanelImpl) Get(ctx context.Context, id string) (*calendar.Calendar, error) {
	stored, err := p.storage.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read calendar %s: %w", id, err)
	}
	if stored == nil {
		return nil, nil
	}
	cal := calendar.Revive(stored)
	if cal == nil {
		log.Warnf("stored calendar %s could not be revived, treating it as absent", id)
	}
	return cal, nil
}

func (p *ControlPanelImpl) Set(ctx context.Context, id string, cal *calendar.Calendar) (*calendar.Calendar, error) {
	if cal == nil {
		return nil, fmt.Errorf("%w: nil calendar for %s", calendar.ErrInvalidArgument, id)
	}
	if err := p.storage.Write(ctx, id, cal); err != nil {
		return nil, fmt.Errorf("failed to write calendar %s: %w", id, err)
	}
	p.publish(ctx, event_bus.CalendarStoredType, func() any { return storedEvent(id, cal) })
	return cal, nil
}

func (p *ControlPanelImpl) Create(ctx context.Context, id string, cfg *calendar.Config) (*calendar.Calendar, error) {
	existing, err := p.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Debugf("calendar %s already exists", id)
		return existing, nil
	}

	created := calendar.NewCalendar(p.ensureConfig(cfg))
	if err := p.storage.Write(ctx, id, created); err != nil {
		return nil, fmt.Errorf("failed to write calendar %s: %w", id, err)
	}
	log.Debugf("created calendar %s", id)
	p.publish(ctx, event_bus.CalendarStoredType, func() any { return storedEvent(id, created) })
	return created, nil
}

func (p *ControlPanelImpl) Delete(ctx context.Context, id string) error {
	if err := p.storage.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete calendar %s: %w", id, err)
	}
	p.publish(ctx, event_bus.CalendarDeletedType, func() any { return event_bus.CalendarDeleted{CalendarId: id} })
	return nil
}

func (p *ControlPanelImpl) ensureConfig(cfg *calendar.Config) *calendar.Config {
	if p.defaultLabel == "" {
		return cfg
	}
	if cfg != nil && cfg.DefaultLabel != "" {
		return cfg
	}
	withLabel := calendar.Config{DefaultLabel: p.defaultLabel}
	if cfg != nil {
		withLabel.Clock = cfg.Clock
	}
	return &withLabel
}

// publish builds the payload only when a bus is configured.
func (p *ControlPanelImpl) publish(ctx context.Context, eventType event_bus.EventType, payload func() any) {
	if p.bus == nil {
		return
	}
	if err := p.bus.Publish(event_bus.NewEvent(ctx, eventType, payload())); err != nil {
		log.Errorf("failed to publish %s: %v", eventType, err)
	}
}

func storedEvent(id string, cal *calendar.Calendar) event_bus.CalendarStored {
	marks := 0
	for range cal.GetMarked() {
		marks++
	}
	return event_bus.CalendarStored{CalendarId: id, Marks: marks, ViewDate: cal.ViewDate()}
}
