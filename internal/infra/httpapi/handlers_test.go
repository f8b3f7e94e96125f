package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anniversary_notifier/internal/app"
	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/schedule"
	"anniversary_notifier/internal/domain/settings"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAdmin struct {
	cfg       *settings.Configuration
	savedNil  bool
	upcoming  []*contact.Contact
	runErr    error
	scheduled []string
	jobs      []schedule.JobInfo
	stats     *app.Stats
	statsErr  error
}

func (m *mockAdmin) GetConfiguration(context.Context) (*settings.Configuration, error) {
	return m.cfg, nil
}

func (m *mockAdmin) SaveConfiguration(_ context.Context, cfg *settings.Configuration) (*settings.Configuration, error) {
	if cfg == nil {
		m.savedNil = true
		return nil, apperrors.NewValidation("saveConfiguration", "configuration is required")
	}
	m.cfg = cfg
	return cfg, nil
}

func (m *mockAdmin) GetUpcomingCount(context.Context) (int, error) { return len(m.upcoming), nil }

func (m *mockAdmin) GetUpcomingContacts(context.Context) ([]*contact.Contact, error) {
	return m.upcoming, nil
}

func (m *mockAdmin) RunNow(context.Context) (string, error) {
	if m.runErr != nil {
		return "", m.runErr
	}
	return "run-1", nil
}

func (m *mockAdmin) ScheduleJob(_ context.Context, name string, hour, minute int) (string, error) {
	m.scheduled = append(m.scheduled, name)
	return "job-1", nil
}

func (m *mockAdmin) ListScheduledJobs() []schedule.JobInfo { return m.jobs }

func (m *mockAdmin) DeleteScheduledJob(_ context.Context, id string) (bool, error) {
	if id != "job-1" {
		return false, apperrors.NewScheduleNotFound(id)
	}
	return true, nil
}

func (m *mockAdmin) GetStats(context.Context) (*app.Stats, error) { return m.stats, m.statsErr }

func newTestServer(t *testing.T, svc AdminService) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	srv := httptest.NewServer(NewRouter(svc, nil, logrus.NewEntry(logger)))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestSaveConfiguration(t *testing.T) {
	svc := &mockAdmin{}
	srv := newTestServer(t, svc)

	resp, body := do(t, http.MethodPut, srv.URL+"/api/config",
		`{"window_days":14,"email_enabled":true,"feed_enabled":false,"template_ref":"bday","recipients":["hr@example.com"]}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(14), body["window_days"])
	require.NotNil(t, svc.cfg)
	assert.Equal(t, []string{"hr@example.com"}, svc.cfg.Recipients)
}

func TestSaveConfigurationNullBody(t *testing.T) {
	for _, payload := range []string{"", "null"} {
		svc := &mockAdmin{}
		srv := newTestServer(t, svc)

		resp, body := do(t, http.MethodPut, srv.URL+"/api/config", payload)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "saveConfiguration: configuration is required", body["error"])
		assert.True(t, svc.savedNil)
	}
}

func TestSaveConfigurationMalformedBody(t *testing.T) {
	srv := newTestServer(t, &mockAdmin{})

	resp, _ := do(t, http.MethodPut, srv.URL+"/api/config", `{"window_days":`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunNowReturnsAccepted(t *testing.T) {
	srv := newTestServer(t, &mockAdmin{})

	resp, body := do(t, http.MethodPost, srv.URL+"/api/runs", "")

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "run-1", body["run_id"])
}

func TestRunNowFailure(t *testing.T) {
	srv := newTestServer(t, &mockAdmin{runErr: errors.New("runNow: queue closed")})

	resp, body := do(t, http.MethodPost, srv.URL+"/api/runs", "")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "runNow: queue closed", body["error"])
}

func TestCreateAndDeleteSchedule(t *testing.T) {
	svc := &mockAdmin{}
	srv := newTestServer(t, svc)

	resp, body := do(t, http.MethodPost, srv.URL+"/api/schedules", `{"name":"morning","hour":8,"minute":30}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "job-1", body["id"])
	assert.Equal(t, []string{"morning"}, svc.scheduled)

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/schedules/job-1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["deleted"])

	resp, body = do(t, http.MethodDelete, srv.URL+"/api/schedules/missing", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "missing")
}

func TestListSchedules(t *testing.T) {
	srv := newTestServer(t, &mockAdmin{jobs: []schedule.JobInfo{{ID: "a", Name: "anniversary-daily", CronExpr: "0 0 8 * * ?", State: schedule.StateWaiting}}})

	resp, err := http.Get(srv.URL + "/api/schedules")
	require.NoError(t, err)
	defer resp.Body.Close()

	var jobs []schedule.JobInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "0 0 8 * * ?", jobs[0].CronExpr)
}

func TestGetStats(t *testing.T) {
	srv := newTestServer(t, &mockAdmin{stats: &app.Stats{UpcomingCount: 2, SentToday: 1, SentThisMonth: 5, TotalTracked: 9}})

	resp, body := do(t, http.MethodGet, srv.URL+"/api/stats", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"upcoming_count": float64(2), "sent_today": float64(1), "sent_this_month": float64(5), "total_tracked": float64(9)}, body)
}

func TestUpcomingCount(t *testing.T) {
	srv := newTestServer(t, &mockAdmin{upcoming: []*contact.Contact{{ID: 1}, {ID: 2}}})

	resp, body := do(t, http.MethodGet, srv.URL+"/api/upcoming/count", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["count"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &mockAdmin{})

	resp, body := do(t, http.MethodGet, srv.URL+"/healthz", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestToUpcoming(t *testing.T) {
	c := &contact.Contact{
		ID:          3,
		DisplayName: "Grace",
		Birthdate:   sql.NullTime{Time: time.Date(1985, time.December, 9, 0, 0, 0, 0, time.UTC), Valid: true},
		Email:       sql.NullString{String: "grace@example.com", Valid: true},
	}

	got := toUpcoming(c, time.Date(2025, time.December, 20, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, upcomingContact{
		ID:             3,
		DisplayName:    "Grace",
		Email:          "grace@example.com",
		NextOccurrence: "2026-12-09",
		Turning:        41,
	}, got)
}
