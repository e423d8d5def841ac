package control_panel

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const ControlPanelKey contextKey = "calendar"

var ErrNoControlPanel = errors.New("control panel not found in context")

func WithControlPanel(ctx context.Context, cp ControlPanel) context.Context {
	return context.WithValue(ctx, ControlPanelKey, cp)
}

// FromContext retrieves the control panel installed by Middleware.
func FromContext(ctx context.Context) (ControlPanel, error) {
	cp, ok := ctx.Value(ControlPanelKey).(ControlPanel)
	if !ok {
		log.Trace("control panel not found in context")
		return nil, ErrNoControlPanel
	}
	return cp, nil
}

// Middleware makes cp available to downstream handlers through FromContext.
// A panel installed earlier in the chain is left in place.
func Middleware(cp ControlPanel) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, err := FromContext(ctx); err == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithControlPanel(ctx, cp)))
		})
	}
}
