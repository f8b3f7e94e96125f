package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobFamilyPrefix marks registrations owned by this application.
const JobFamilyPrefix = "anniversary-"

// DefaultJobName is used when a registration is created without a name.
const DefaultJobName = JobFamilyPrefix + "daily"

const triggerTimeout = 30 * time.Second

// Trigger starts a batch run. It must return quickly.
type Trigger func(ctx context.Context) error

// cronParser accepts the six-field, seconds-first expressions produced by
// DailyCronExpr, including "?" for day-of-week.
var cronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type registration struct {
	job      *schedule.Job
	entryID  cron.EntryID
	schedule cron.Schedule
}

// Registrar registers daily invocations of the batch run on a cron engine and
// persists them so they survive restarts.
type Registrar struct {
	cronEngine *cron.Cron
	repo       schedule.Repository
	trigger    Trigger
	logger     *logrus.Entry
	location   *time.Location
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*registration
	started bool
}

func NewRegistrar(repo schedule.Repository, trigger Trigger, location *time.Location, logger *logrus.Entry) *Registrar {
	if location == nil {
		location = time.Local
	}
	return &Registrar{
		cronEngine: cron.New(cron.WithParser(cronParser), cron.WithLocation(location)),
		repo:       repo,
		trigger:    trigger,
		logger:     logger,
		location:   location,
		now:        time.Now,
		entries:    make(map[string]*registration),
	}
}

// ClampTime replaces an out-of-range hour or minute with 0.
func ClampTime(hour, minute int) (int, int) {
	if hour < 0 || hour > 23 {
		hour = 0
	}
	if minute < 0 || minute > 59 {
		minute = 0
	}
	return hour, minute
}

// DailyCronExpr returns the daily expression for hour:minute after clamping.
func DailyCronExpr(hour, minute int) string {
	hour, minute = ClampTime(hour, minute)
	return fmt.Sprintf("0 %d %d * * ?", minute, hour)
}

func familyName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultJobName
	}
	if strings.HasPrefix(name, JobFamilyPrefix) {
		return name
	}
	return JobFamilyPrefix + name
}

// ScheduleDaily registers and persists a daily run at hour:minute and returns
// the registration id. Out-of-range values are clamped to 0, not rejected.
func (r *Registrar) ScheduleDaily(ctx context.Context, name string, hour, minute int) (string, error) {
	hour, minute = ClampTime(hour, minute)
	job := &schedule.Job{
		ID:       uuid.NewString(),
		Name:     familyName(name),
		CronExpr: DailyCronExpr(hour, minute),
		Hour:     hour,
		Minute:   minute,
	}

	if err := r.repo.Create(ctx, job); err != nil {
		return "", apperrors.NewPersistence("scheduleDaily", err)
	}
	if err := r.register(job); err != nil {
		if delErr := r.repo.Delete(ctx, job.ID); delErr != nil {
			r.logger.WithError(delErr).WithField("job_id", job.ID).Warn("Failed to remove persisted job after registration error")
		}
		return "", err
	}

	r.logger.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"job_name":  job.Name,
		"cron_expr": job.CronExpr,
	}).Info("Daily run scheduled")
	return job.ID, nil
}

func (r *Registrar) register(job *schedule.Job) error {
	sched, err := cronParser.Parse(job.CronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", job.CronExpr, err)
	}

	jobLogger := r.logger.WithFields(logrus.Fields{"job_id": job.ID, "job_name": job.Name})
	entryID := r.cronEngine.Schedule(sched, cron.FuncJob(func() {
		jobLogger.Info("Scheduled run triggered")
		ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
		defer cancel()
		if err := r.trigger(ctx); err != nil {
			jobLogger.WithError(err).Error("Failed to trigger scheduled run")
		}
	}))

	r.mu.Lock()
	r.entries[job.ID] = &registration{job: job, entryID: entryID, schedule: sched}
	r.mu.Unlock()
	return nil
}

// DeleteSchedule cancels an active registration. An unknown id yields a
// ScheduleNotFoundError. The persisted job is removed first; when that fails
// the registration stays active.
func (r *Registrar) DeleteSchedule(ctx context.Context, id string) error {
	r.mu.Lock()
	_, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return apperrors.NewScheduleNotFound(id)
	}

	if err := r.repo.Delete(ctx, id); err != nil && !errors.Is(err, schedule.ErrNotFound) {
		return apperrors.NewPersistence("deleteSchedule", err)
	}

	r.mu.Lock()
	reg, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()
	if !ok {
		return apperrors.NewScheduleNotFound(id)
	}
	r.cronEngine.Remove(reg.entryID)
	r.logger.WithField("job_id", id).Info("Scheduled run removed")
	return nil
}

// List returns the active registrations of this job family ordered by next
// fire time.
func (r *Registrar) List() []schedule.JobInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().In(r.location)
	state := schedule.StatePaused
	if r.started {
		state = schedule.StateWaiting
	}

	infos := make([]schedule.JobInfo, 0, len(r.entries))
	for _, reg := range r.entries {
		if !strings.HasPrefix(reg.job.Name, JobFamilyPrefix) {
			continue
		}
		next := r.cronEngine.Entry(reg.entryID).Next
		if next.IsZero() {
			next = reg.schedule.Next(now)
		}
		infos = append(infos, schedule.JobInfo{
			ID:           reg.job.ID,
			Name:         reg.job.Name,
			CronExpr:     reg.job.CronExpr,
			NextFireTime: next,
			State:        state,
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].NextFireTime.Equal(infos[j].NextFireTime) {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].NextFireTime.Before(infos[j].NextFireTime)
	})
	return infos
}

// Restore re-registers every persisted job. Jobs that fail to register are
// logged and skipped.
func (r *Registrar) Restore(ctx context.Context) (int, error) {
	jobs, err := r.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load persisted schedules: %w", err)
	}
	restored := 0
	for _, job := range jobs {
		job.Hour, job.Minute = ClampTime(job.Hour, job.Minute)
		job.CronExpr = DailyCronExpr(job.Hour, job.Minute)
		if err := r.register(job); err != nil {
			r.logger.WithError(err).WithField("job_id", job.ID).Warn("Skipping persisted schedule")
			continue
		}
		restored++
	}
	r.logger.WithField("count", restored).Info("Persisted schedules restored")
	return restored, nil
}

func (r *Registrar) Start() {
	r.logger.Info("Starting schedule registrar...")
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	r.cronEngine.Start()
}

func (r *Registrar) Stop() {
	r.logger.Info("Stopping schedule registrar...")
	ctx := r.cronEngine.Stop() // waits for running jobs
	<-ctx.Done()
	r.mu.Lock()
	r.started = false
	r.mu.Unlock()
	r.logger.Info("Schedule registrar gracefully stopped.")
}
