package domain

import "time"

// Clock supplies the current instant and the current day to the state
// machine, so day-count arithmetic and expiry guards stay deterministic
// under test.
type Clock interface {
	// Now returns the current instant
	Now() time.Time

	// Today returns the current day truncated to midnight UTC
	Today() time.Time
}

type systemClock struct{}

// SystemClock returns a Clock backed by the wall clock
func SystemClock() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

func (systemClock) Today() time.Time {
	return Midnight(time.Now().UTC())
}

// Midnight truncates an instant to the start of its UTC day
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole days from one midnight to another
// (maturity day-count convention: calendar days, 360-day-year applied later)
func DaysBetween(from, to time.Time) int {
	return int(Midnight(to).Sub(Midnight(from)).Hours() / 24)
}
