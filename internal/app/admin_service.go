package app

import (
	"context"
	"fmt"
	"time"

	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/schedule"
	"anniversary_notifier/internal/domain/settings"
	"anniversary_notifier/internal/domain/tracking"
	"anniversary_notifier/internal/infra/queue"

	"github.com/google/uuid"
)

// RunEnqueuer hands a batch run to the asynchronous worker.
type RunEnqueuer interface {
	Enqueue(ctx context.Context, req queue.RunRequest) error
}

// ScheduleRegistrar manages recurring daily batch registrations.
type ScheduleRegistrar interface {
	ScheduleDaily(ctx context.Context, name string, hour, minute int) (string, error)
	DeleteSchedule(ctx context.Context, id string) error
	List() []schedule.JobInfo
}

// Stats is the dashboard summary returned by GetStats.
type Stats struct {
	UpcomingCount int `json:"upcoming_count"`
	SentToday     int `json:"sent_today"`
	SentThisMonth int `json:"sent_this_month"`
	TotalTracked  int `json:"total_tracked"`
}

// AdminService implements the administrative operations. Errors returned
// from it are prefixed with the operation name.
type AdminService struct {
	settings  settings.Store
	finder    *CandidateFinder
	tracking  tracking.Repository
	runs      RunEnqueuer
	registrar ScheduleRegistrar
	now       func() time.Time
}

func NewAdminService(
	store settings.Store,
	finder *CandidateFinder,
	trackingRepo tracking.Repository,
	runs RunEnqueuer,
	registrar ScheduleRegistrar,
) *AdminService {
	return &AdminService{
		settings:  store,
		finder:    finder,
		tracking:  trackingRepo,
		runs:      runs,
		registrar: registrar,
		now:       time.Now,
	}
}

func (s *AdminService) GetConfiguration(ctx context.Context) (*settings.Configuration, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("getConfiguration: %w", err)
	}
	return cfg, nil
}

func (s *AdminService) SaveConfiguration(ctx context.Context, cfg *settings.Configuration) (*settings.Configuration, error) {
	const op = "saveConfiguration"
	if cfg == nil {
		return nil, apperrors.NewValidation(op, "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewValidation(op, "%s", err.Error())
	}
	saved, err := s.settings.Save(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

func (s *AdminService) GetUpcomingCount(ctx context.Context) (int, error) {
	contacts, err := s.upcoming(ctx)
	if err != nil {
		return 0, fmt.Errorf("getUpcomingCount: %w", err)
	}
	return len(contacts), nil
}

func (s *AdminService) GetUpcomingContacts(ctx context.Context) ([]*contact.Contact, error) {
	contacts, err := s.upcoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("getUpcomingContacts: %w", err)
	}
	return contacts, nil
}

func (s *AdminService) upcoming(ctx context.Context) ([]*contact.Contact, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.finder.Find(ctx, anniversary.Window(s.now(), cfg.WindowDays))
}

// RunNow enqueues one batch run and returns its id without waiting for it.
func (s *AdminService) RunNow(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	req := queue.RunRequest{RunID: runID, RequestedAt: s.now(), Trigger: queue.TriggerManual}
	if err := s.runs.Enqueue(ctx, req); err != nil {
		return "", fmt.Errorf("runNow: failed to enqueue run %s: %w", runID, err)
	}
	return runID, nil
}

func (s *AdminService) ScheduleJob(ctx context.Context, name string, hour, minute int) (string, error) {
	id, err := s.registrar.ScheduleDaily(ctx, name, hour, minute)
	if err != nil {
		return "", fmt.Errorf("scheduleJob: %w", err)
	}
	return id, nil
}

func (s *AdminService) ListScheduledJobs() []schedule.JobInfo {
	return s.registrar.List()
}

// DeleteScheduledJob returns true when the registration was removed. An
// unknown id is reported as a ScheduleNotFoundError.
func (s *AdminService) DeleteScheduledJob(ctx context.Context, id string) (bool, error) {
	if err := s.registrar.DeleteSchedule(ctx, id); err != nil {
		if apperrors.IsScheduleNotFound(err) {
			return false, err
		}
		return false, fmt.Errorf("deleteScheduledJob: %w", err)
	}
	return true, nil
}

func (s *AdminService) GetStats(ctx context.Context) (*Stats, error) {
	const op = "getStats"
	upcoming, err := s.upcoming(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	startOfDay := anniversary.DateOnly(now)
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	sentToday, err := s.tracking.CountSentSince(ctx, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sentThisMonth, err := s.tracking.CountSentSince(ctx, startOfMonth)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	total, err := s.tracking.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Stats{
		UpcomingCount: len(upcoming),
		SentToday:     sentToday,
		SentThisMonth: sentThisMonth,
		TotalTracked:  total,
	}, nil
}
