// Package statusapi exposes a read-only HTTP status endpoint backed by the
// dispatcher's lock-free published snapshot; it never touches the Scene.
package statusapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"logicgrid/internal/session"
)

// StatusSource is satisfied by *session.Dispatcher.
type StatusSource interface {
	Status() session.Status
}

// Router builds the chi router serving GET /status.
func Router(src StatusSource, log *logrus.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(src.Status()); err != nil {
			log.WithError(err).Error("encode status response")
		}
	})

	return r
}

func requestLogger(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			entry := log.WithField("path", r.URL.Path)
			entry.Debug("status request")
			next.ServeHTTP(w, r)
		})
	}
}
