// internal/domain/anniversary/occurrence.go
package anniversary

import (
	"errors"
	"time"
)

// ErrInvalidDate is returned when an occurrence cannot be built from the birth date.
var ErrInvalidDate = errors.New("invalid anniversary date")

// DateOnly strips the clock part of t, keeping its location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextOccurrence returns the next calendar date (today included) on which the
// anniversary of birth falls. Feb 29 resolves to Feb 28 in non-leap years.
func NextOccurrence(birth, today time.Time) (time.Time, error) {
	if birth.IsZero() {
		return time.Time{}, ErrInvalidDate
	}
	today = DateOnly(today)

	candidate := onYear(birth, today.Year(), today.Location())
	if candidate.Before(today) {
		candidate = onYear(birth, today.Year()+1, today.Location())
	}
	return candidate, nil
}

// onYear places birth's month/day into year. time.Date would roll Feb 29 over
// to Mar 1 in a non-leap year, so that case is rounded down explicitly.
func onYear(birth time.Time, year int, loc *time.Location) time.Time {
	month, day := birth.Month(), birth.Day()
	if month == time.February && day == 29 && !IsLeapYear(year) {
		day = 28
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// IsLeapYear reports whether year has a Feb 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// Age returns the number of whole years between birth and on.
// A zero birth date yields 0.
func Age(birth, on time.Time) int {
	if birth.IsZero() || on.Before(birth) {
		return 0
	}
	years := on.Year() - birth.Year()
	birthday := onYear(birth, on.Year(), on.Location())
	if on.Month() < birthday.Month() || (on.Month() == birthday.Month() && on.Day() < birthday.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}
