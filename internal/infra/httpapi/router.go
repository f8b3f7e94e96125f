// Package httpapi exposes the admin surface over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"anniversary_notifier/internal/app"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/schedule"
	"anniversary_notifier/internal/domain/settings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// AdminService is implemented by app.AdminService.
type AdminService interface {
	GetConfiguration(ctx context.Context) (*settings.Configuration, error)
	SaveConfiguration(ctx context.Context, cfg *settings.Configuration) (*settings.Configuration, error)
	GetUpcomingCount(ctx context.Context) (int, error)
	GetUpcomingContacts(ctx context.Context) ([]*contact.Contact, error)
	RunNow(ctx context.Context) (string, error)
	ScheduleJob(ctx context.Context, name string, hour, minute int) (string, error)
	ListScheduledJobs() []schedule.JobInfo
	DeleteScheduledJob(ctx context.Context, id string) (bool, error)
	GetStats(ctx context.Context) (*app.Stats, error)
}

// NewRouter wires the admin endpoints. metricsHandler may be nil.
func NewRouter(svc AdminService, metricsHandler http.Handler, logger *logrus.Entry) http.Handler {
	h := &Handler{service: svc, logger: logger, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", h.GetConfiguration)
		r.Put("/config", h.SaveConfiguration)
		r.Get("/upcoming", h.ListUpcoming)
		r.Get("/upcoming/count", h.CountUpcoming)
		r.Post("/runs", h.RunNow)
		r.Get("/schedules", h.ListSchedules)
		r.Post("/schedules", h.CreateSchedule)
		r.Delete("/schedules/{id}", h.DeleteSchedule)
		r.Get("/stats", h.GetStats)
	})
	return r
}

func requestLogger(logger *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
				"request_id": middleware.GetReqID(r.Context()),
			}).Debug("HTTP request")
		})
	}
}
