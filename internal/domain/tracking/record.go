// internal/domain/tracking/record.go
package tracking

import (
	"database/sql"
	"time"
)

// Record tracks one anniversary notification for a contact in a cycle-year.
// Corresponds to the 'anniversary_tracking' table. Records are never deleted.
type Record struct {
	ID             int64
	ContactID      int64
	OccurrenceDate time.Time // concrete date of the anniversary for this cycle
	Sent           bool
	SentAt         sql.NullTime
	CreatedAt      time.Time
}

// CycleBounds returns the creation-time interval [from, to) of cycleYear in
// loc. The dedup key is the year a record was created in, not the year of
// the occurrence.
func CycleBounds(cycleYear int, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(cycleYear, time.January, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(1, 0, 0)
}
