package app

import (
	"context"
	"fmt"
	"time"

	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/tracking"
)

// DedupFilter drops candidates that already have a tracking record created in
// the cycle-year. The key is the creation year, so a record created late in
// December for a January occurrence belongs to December's year. Years are
// taken in the run's location.
type DedupFilter struct {
	tracking tracking.Repository
	location *time.Location
}

func NewDedupFilter(repo tracking.Repository, loc *time.Location) *DedupFilter {
	if loc == nil {
		loc = time.Local
	}
	return &DedupFilter{tracking: repo, location: loc}
}

func (d *DedupFilter) Filter(ctx context.Context, candidates []*contact.Contact, cycleYear int) ([]*contact.Contact, error) {
	if len(candidates) == 0 {
		return []*contact.Contact{}, nil
	}
	ids := make([]int64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	from, to := tracking.CycleBounds(cycleYear, d.location)
	tracked, err := d.tracking.ContactIDsTrackedBetween(ctx, from, to, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to look up existing tracking records for %d: %w", cycleYear, err)
	}

	fresh := make([]*contact.Contact, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := tracked[c.ID]; !ok {
			fresh = append(fresh, c)
		}
	}
	return fresh, nil
}
