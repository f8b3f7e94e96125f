package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/settings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// Handler holds the dependencies of the admin HTTP handlers.
type Handler struct {
	service AdminService
	logger  *logrus.Entry
	now     func() time.Time
}

type upcomingContact struct {
	ID             int64  `json:"id"`
	DisplayName    string `json:"display_name"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	NextOccurrence string `json:"next_occurrence"`
	Turning        int    `json:"turning,omitempty"`
}

type scheduleRequest struct {
	Name   string `json:"name"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

func (h *Handler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetConfiguration(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// SaveConfiguration passes an empty or null body through as a nil
// configuration, which the service rejects.
func (h *Handler) SaveConfiguration(w http.ResponseWriter, r *http.Request) {
	var cfg *settings.Configuration
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid body: "+err.Error()))
		return
	}
	saved, err := h.service.SaveConfiguration(r.Context(), cfg)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) ListUpcoming(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.service.GetUpcomingContacts(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	now := h.now()
	out := make([]upcomingContact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toUpcoming(c, now))
	}
	writeJSON(w, http.StatusOK, out)
}

func toUpcoming(c *contact.Contact, now time.Time) upcomingContact {
	v := upcomingContact{ID: c.ID, DisplayName: c.DisplayName, Email: c.Email.String, Phone: c.Phone.String}
	if next, err := anniversary.NextOccurrence(c.Birthdate.Time, now); err == nil {
		v.NextOccurrence = next.Format("2006-01-02")
		v.Turning = anniversary.Age(c.Birthdate.Time, next)
	}
	return v
}

func (h *Handler) CountUpcoming(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.GetUpcomingCount(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *Handler) RunNow(w http.ResponseWriter, r *http.Request) {
	runID, err := h.service.RunNow(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (h *Handler) ListSchedules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListScheduledJobs())
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var body scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid body: "+err.Error()))
		return
	}
	id, err := h.service.ScheduleJob(r.Context(), body.Name, body.Hour, body.Minute)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.service.DeleteScheduledJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case apperrors.IsScheduleNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	default:
		h.logger.WithError(err).Error("Admin request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
