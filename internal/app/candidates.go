package app

import (
	"context"
	"fmt"

	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/contact"

	"github.com/sirupsen/logrus"
)

// CandidateFinder asks the directory for contacts in the day-of-year window and
// re-validates what comes back.
type CandidateFinder struct {
	directory contact.Directory
	logger    *logrus.Entry
}

func NewCandidateFinder(directory contact.Directory, logger *logrus.Entry) *CandidateFinder {
	return &CandidateFinder{directory: directory, logger: logger}
}

// Find returns each matching contact once, in the order the directory yields them.
func (f *CandidateFinder) Find(ctx context.Context, ranges []anniversary.DayRange) ([]*contact.Contact, error) {
	found, err := f.directory.FindByDayOfYear(ctx, ranges)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts for ranges %v: %w", ranges, err)
	}

	seen := make(map[int64]struct{}, len(found))
	candidates := make([]*contact.Contact, 0, len(found))
	for _, c := range found {
		if c == nil || !c.Birthdate.Valid {
			continue
		}
		if !anniversary.InAny(ranges, c.DayOfYear()) {
			f.logger.WithFields(logrus.Fields{"contact_id": c.ID, "day_of_year": c.DayOfYear()}).
				Debug("Directory returned contact outside the window, dropping")
			continue
		}
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}
		candidates = append(candidates, c)
	}
	return candidates, nil
}
