// internal/domain/tracking/repository.go
package tracking

import (
	"context"
	"time"
)

// Repository defines persistence operations for tracking records.
type Repository interface {
	BulkCreate(ctx context.Context, records []*Record) error
	// ContactIDsTrackedBetween returns the subset of contactIDs that already have
	// a record created in [from, to). Implementations must answer with a single lookup.
	ContactIDsTrackedBetween(ctx context.Context, from, to time.Time, contactIDs []int64) (map[int64]struct{}, error)
	// ListUnsentIDs returns ids of every unsent record in ascending id order.
	ListUnsentIDs(ctx context.Context) ([]int64, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*Record, error)
	MarkSent(ctx context.Context, ids []int64, at time.Time) error

	CountSentSince(ctx context.Context, since time.Time) (int, error)
	CountAll(ctx context.Context) (int, error)
}
