package shipping

import "fmt"

// Window is a delivery estimate expressed as an inclusive range of
// business days from order placement.
type Window struct {
	MinDays int `json:"min_days"`
	MaxDays int `json:"max_days"`
}

func (w Window) String() string {
	return fmt.Sprintf("%d-%d days", w.MinDays, w.MaxDays)
}

// Midpoint returns the middle of the range, rounded down.
func (w Window) Midpoint() int {
	return (w.MinDays + w.MaxDays) / 2
}

// Later returns whichever of the two windows ends later. Ties break on
// the later start so the pessimistic estimate wins.
func (w Window) Later(other Window) Window {
	if other.MaxDays > w.MaxDays {
		return other
	}
	if other.MaxDays == w.MaxDays && other.MinDays > w.MinDays {
		return other
	}
	return w
}

// Shift moves both bounds by the given number of days.
func (w Window) Shift(days int) Window {
	return Window{MinDays: w.MinDays + days, MaxDays: w.MaxDays + days}
}
