package contact

import (
	"database/sql"
)

// Contact is a directory entry whose birth date drives the anniversary pipeline.
// Only the month and day of Birthdate matter for matching.
type Contact struct {
	ID          int64
	DisplayName string
	Birthdate   sql.NullTime
	Email       sql.NullString
	Phone       sql.NullString
}

// DayOfYear returns the ordinal of the birth date within its own year, or 0
// when the birth date is unknown.
func (c *Contact) DayOfYear() int {
	if c == nil || !c.Birthdate.Valid {
		return 0
	}
	return c.Birthdate.Time.YearDay()
}
