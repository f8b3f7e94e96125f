package schedule

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Repository when the job id is unknown.
var ErrNotFound = errors.New("scheduled job not found")

// Registration states reported by JobInfo.
const (
	StateWaiting = "WAITING" // registered with a running scheduler
	StatePaused  = "PAUSED"  // registered, scheduler not started
)

// Job is a persisted daily registration of the anniversary batch.
type Job struct {
	ID        string
	Name      string
	CronExpr  string
	Hour      int
	Minute    int
	CreatedAt time.Time
}

// JobInfo describes an active registration for listings.
type JobInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CronExpr     string    `json:"cron_expr"`
	NextFireTime time.Time `json:"next_fire_time"`
	State        string    `json:"state"`
}

// Repository persists schedule registrations so they survive restarts.
type Repository interface {
	Create(ctx context.Context, job *Job) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*Job, error)
}
