package contact

import (
	"context"

	"anniversary_notifier/internal/domain/anniversary"
)

// Directory is the read-only contact store queried by the candidate finder.
type Directory interface {
	// FindByDayOfYear returns contacts with a non-null birth date whose
	// day-of-year falls inside any of the ranges.
	FindByDayOfYear(ctx context.Context, ranges []anniversary.DayRange) ([]*Contact, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*Contact, error)
}
