package domain

import "time"

type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r DateRange) contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Overlaps reports whether existing and requested share at least one instant.
// Both ranges are treated as closed intervals, so a booking that ends exactly
// when another starts is a conflict.
func Overlaps(existing, requested DateRange) bool {
	if requested.contains(existing.Start) || requested.contains(existing.End) {
		return true
	}
	return !existing.Start.After(requested.Start) && !existing.End.Before(requested.End)
}
