// internal/domain/anniversary/window.go
package anniversary

import (
	"fmt"
	"time"
)

// MaxDayOfYear is the upper bound used for the tail range of a window that
// crosses the year boundary. Leap-year ordinals are not normalized.
const MaxDayOfYear = 366

// DayRange is an inclusive day-of-year interval.
type DayRange struct {
	Start int
	End   int
}

// Contains reports whether doy lies inside the range (inclusive).
func (r DayRange) Contains(doy int) bool {
	return doy >= r.Start && doy <= r.End
}

func (r DayRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Window converts "today + windowDays" into one or two day-of-year ranges.
// When the end of the window falls into the next year the interval is split
// into [DOY(today), 366] and [1, DOY(end)].
func Window(today time.Time, windowDays int) []DayRange {
	if windowDays < 1 {
		windowDays = 1
	}
	end := today.AddDate(0, 0, windowDays)
	if end.Year() == today.Year() {
		return []DayRange{{Start: today.YearDay(), End: end.YearDay()}}
	}
	return []DayRange{
		{Start: today.YearDay(), End: MaxDayOfYear},
		{Start: 1, End: end.YearDay()},
	}
}

// InAny reports whether doy falls inside any of the ranges.
func InAny(ranges []DayRange, doy int) bool {
	for _, r := range ranges {
		if r.Contains(doy) {
			return true
		}
	}
	return false
}
