// internal/infra/database/postgres_tracking_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"anniversary_notifier/internal/domain/tracking"

	"github.com/lib/pq" // For pq.Array
)

type PostgresTrackingRepository struct {
	db *sql.DB
}

func NewPostgresTrackingRepository(db *sql.DB) *PostgresTrackingRepository {
	return &PostgresTrackingRepository{db: db}
}

const trackingColumns = `id, contact_id, occurrence_date, sent, sent_at, created_at`

// BulkCreate inserts all records in one transaction and fills in ID and CreatedAt.
func (r *PostgresTrackingRepository) BulkCreate(ctx context.Context, records []*tracking.Record) error {
	if len(records) == 0 {
		return nil
	}

	txn, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for bulk create: %w", err)
	}
	defer txn.Rollback() // no-op after commit

	stmt, err := txn.PrepareContext(ctx, `INSERT INTO anniversary_tracking (contact_id, occurrence_date, sent, sent_at)
                                         VALUES ($1, $2, $3, $4)
                                         RETURNING id, created_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for bulk create: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		err := stmt.QueryRowContext(ctx, rec.ContactID, rec.OccurrenceDate, rec.Sent, rec.SentAt).Scan(&rec.ID, &rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("error executing statement for bulk create (contact %d): %w", rec.ContactID, err)
		}
	}

	return txn.Commit()
}

func (r *PostgresTrackingRepository) ContactIDsTrackedBetween(ctx context.Context, from, to time.Time, contactIDs []int64) (map[int64]struct{}, error) {
	tracked := make(map[int64]struct{})
	if len(contactIDs) == 0 {
		return tracked, nil
	}
	query := `SELECT DISTINCT contact_id
               FROM anniversary_tracking
               WHERE contact_id = ANY($1) AND created_at >= $2 AND created_at < $3`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(contactIDs), from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying tracked contacts created in [%s, %s): %w", from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning tracked contact id: %w", err)
		}
		tracked[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracked contact ids: %w", err)
	}
	return tracked, nil
}

func (r *PostgresTrackingRepository) ListUnsentIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM anniversary_tracking WHERE sent = FALSE ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing unsent tracking records: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning unsent tracking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unsent tracking ids: %w", err)
	}
	return ids, nil
}

func (r *PostgresTrackingRepository) GetByIDs(ctx context.Context, ids []int64) ([]*tracking.Record, error) {
	if len(ids) == 0 {
		return []*tracking.Record{}, nil
	}
	query := `SELECT ` + trackingColumns + ` FROM anniversary_tracking WHERE id = ANY($1) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("error getting tracking records by IDs: %w", err)
	}
	defer rows.Close()

	records := make([]*tracking.Record, 0, len(ids))
	for rows.Next() {
		rec := &tracking.Record{}
		if err := rows.Scan(&rec.ID, &rec.ContactID, &rec.OccurrenceDate, &rec.Sent, &rec.SentAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning tracking record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tracking record rows: %w", err)
	}
	return records, nil
}

func (r *PostgresTrackingRepository) MarkSent(ctx context.Context, ids []int64, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE anniversary_tracking SET sent = TRUE, sent_at = $1 WHERE id = ANY($2)`,
		at, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error marking tracking records sent: %w", err)
	}
	return nil
}

func (r *PostgresTrackingRepository) CountSentSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM anniversary_tracking WHERE sent = TRUE AND sent_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting sent tracking records: %w", err)
	}
	return n, nil
}

func (r *PostgresTrackingRepository) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anniversary_tracking`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting tracking records: %w", err)
	}
	return n, nil
}
