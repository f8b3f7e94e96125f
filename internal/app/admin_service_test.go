package app

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/settings"
	"anniversary_notifier/internal/domain/tracking"
	"anniversary_notifier/internal/infra/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type adminHarness struct {
	settings  *fakeSettings
	tracking  *fakeTracking
	runs      *fakeEnqueuer
	registrar *fakeRegistrar
	service   *AdminService
}

func newAdminHarness(now time.Time, contacts ...*contact.Contact) *adminHarness {
	logger, _ := nullLogger()
	clock := func() time.Time { return now }
	dir := &fakeDirectory{contacts: contacts}
	h := &adminHarness{
		settings:  &fakeSettings{cfg: settings.Defaults()},
		tracking:  newFakeTracking(clock),
		runs:      &fakeEnqueuer{},
		registrar: &fakeRegistrar{},
	}
	h.service = NewAdminService(h.settings, NewCandidateFinder(dir, logger), h.tracking, h.runs, h.registrar)
	h.service.now = clock
	return h
}

func TestSaveConfigurationRejectsNil(t *testing.T) {
	h := newAdminHarness(time.Now())

	_, err := h.service.SaveConfiguration(context.Background(), nil)

	require.True(t, apperrors.IsValidation(err))
	assert.EqualError(t, err, "saveConfiguration: configuration is required")
	assert.Zero(t, h.settings.saves)
}

func TestSaveConfigurationRejectsInvalidWindow(t *testing.T) {
	h := newAdminHarness(time.Now())

	_, err := h.service.SaveConfiguration(context.Background(), &settings.Configuration{WindowDays: 0})

	require.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "saveConfiguration: window days must be at least 1")
}

func TestSaveAndGetConfiguration(t *testing.T) {
	h := newAdminHarness(time.Now())
	ctx := context.Background()
	in := &settings.Configuration{WindowDays: 10, EmailEnabled: true, TemplateRef: "birthday", Recipients: []string{"hr@example.com"}}

	saved, err := h.service.SaveConfiguration(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, saved)

	got, err := h.service.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestSaveConfigurationWrapsStoreError(t *testing.T) {
	h := newAdminHarness(time.Now())
	h.settings.saveErr = errBoom

	_, err := h.service.SaveConfiguration(context.Background(), settings.Defaults())

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "saveConfiguration: ")
}

func TestUpcoming(t *testing.T) {
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	h := newAdminHarness(now,
		newContact(1, "soon", day(1990, time.June, 3)),
		newContact(2, "later", day(1990, time.July, 3)),
	)
	ctx := context.Background()

	count, err := h.service.GetUpcomingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	contacts, err := h.service.GetUpcomingContacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, int64(1), contacts[0].ID)
	assert.Empty(t, h.tracking.records)
}

func TestRunNowEnqueues(t *testing.T) {
	h := newAdminHarness(time.Now())

	runID, err := h.service.RunNow(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, runID)
	require.Len(t, h.runs.requests, 1)
	assert.Equal(t, runID, h.runs.requests[0].RunID)
	assert.Equal(t, queue.TriggerManual, h.runs.requests[0].Trigger)
}

func TestRunNowEnqueueFailure(t *testing.T) {
	h := newAdminHarness(time.Now())
	h.runs.err = errBoom

	_, err := h.service.RunNow(context.Background())

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "runNow: ")
}

func TestScheduleAndDeleteJob(t *testing.T) {
	h := newAdminHarness(time.Now())
	ctx := context.Background()

	id, err := h.service.ScheduleJob(ctx, "anniversary-morning", 8, 0)
	require.NoError(t, err)
	assert.Len(t, h.service.ListScheduledJobs(), 1)

	ok, err := h.service.DeleteScheduledJob(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.service.DeleteScheduledJob(ctx, id)
	assert.False(t, ok)
	assert.True(t, apperrors.IsScheduleNotFound(err))
}

func TestScheduleJobWrapsError(t *testing.T) {
	h := newAdminHarness(time.Now())
	h.registrar.err = errBoom

	_, err := h.service.ScheduleJob(context.Background(), "x", 1, 1)

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "scheduleJob: ")
}

func TestGetStats(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	h := newAdminHarness(now, newContact(1, "soon", day(1990, time.June, 16)))
	sent := func(at time.Time) sql.NullTime { return sql.NullTime{Time: at, Valid: true} }
	h.tracking.records = []*tracking.Record{
		{ID: 1, ContactID: 7, Sent: true, SentAt: sent(now.Add(-time.Hour))},
		{ID: 2, ContactID: 8, Sent: true, SentAt: sent(day(2025, time.June, 2))},
		{ID: 3, ContactID: 9, Sent: true, SentAt: sent(day(2025, time.May, 30))},
		{ID: 4, ContactID: 10},
	}

	stats, err := h.service.GetStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &Stats{UpcomingCount: 1, SentToday: 1, SentThisMonth: 2, TotalTracked: 4}, stats)
}

func TestGetStatsSettingsFailure(t *testing.T) {
	h := newAdminHarness(time.Now())
	h.settings.getErr = errBoom

	_, err := h.service.GetStats(context.Background())

	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "getStats: ")
}
