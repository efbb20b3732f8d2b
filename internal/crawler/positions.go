package crawler

import (
	"cmp"
	"slices"
)

// AssignPositions numbers listings 1..N in their current order
func AssignPositions(listings []Listing) {
	for i := range listings {
		listings[i].Position = i + 1
	}
}

// SortByPosition orders listings by position. Listings without a position go
// last; ties are broken by link so the order is stable across runs.
func SortByPosition(listings []Listing) {
	slices.SortStableFunc(listings, func(a, b Listing) int {
		aMissing, bMissing := a.Position <= 0, b.Position <= 0
		switch {
		case aMissing && !bMissing:
			return 1
		case !aMissing && bMissing:
			return -1
		case aMissing && bMissing:
			return cmp.Compare(a.Link, b.Link)
		}
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.Link, b.Link)
	})
}

// HasPositionConflicts reports whether two listings share a position
func HasPositionConflicts(listings []Listing) bool {
	seen := make(map[int]bool, len(listings))
	for _, l := range listings {
		if l.Position <= 0 {
			continue
		}
		if seen[l.Position] {
			return true
		}
		seen[l.Position] = true
	}
	return false
}

// Renumber sorts listings by position and makes positions dense again
func Renumber(listings []Listing) {
	SortByPosition(listings)
	AssignPositions(listings)
}
