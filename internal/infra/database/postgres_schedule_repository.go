package database

import (
	"context"
	"database/sql"
	"fmt"

	"anniversary_notifier/internal/domain/schedule"
)

// ErrScheduleNotFound is the domain sentinel, re-exported for callers of this package.
var ErrScheduleNotFound = schedule.ErrNotFound

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

func (r *PostgresScheduleRepository) Create(ctx context.Context, job *schedule.Job) error {
	query := `INSERT INTO scheduled_jobs (id, name, cron_expr, hour, minute)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, job.ID, job.Name, job.CronExpr, job.Hour, job.Minute).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating scheduled job: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting scheduled job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading deleted rows: %w", err)
	}
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

func (r *PostgresScheduleRepository) ListAll(ctx context.Context) ([]*schedule.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, cron_expr, hour, minute, created_at FROM scheduled_jobs ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*schedule.Job, 0)
	for rows.Next() {
		j := &schedule.Job{}
		if err := rows.Scan(&j.ID, &j.Name, &j.CronExpr, &j.Hour, &j.Minute, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning scheduled job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled jobs: %w", err)
	}
	return jobs, nil
}
