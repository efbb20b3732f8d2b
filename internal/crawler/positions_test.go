package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortByPosition(t *testing.T) {
	listings := []Listing{
		{Link: "d", Position: 0},
		{Link: "c", Position: 2},
		{Link: "b", Position: 1},
		{Link: "a", Position: 2},
		{Link: "e", Position: -1},
	}

	SortByPosition(listings)

	assert.Equal(t, []string{"b", "a", "c", "d", "e"}, linksOf(listings))
}

func TestHasPositionConflicts(t *testing.T) {
	assert.False(t, HasPositionConflicts(nil))
	assert.False(t, HasPositionConflicts([]Listing{{Position: 1}, {Position: 2}, {Position: 0}, {Position: 0}}))
	assert.True(t, HasPositionConflicts([]Listing{{Position: 1}, {Position: 3}, {Position: 1}}))
}

func TestRenumber(t *testing.T) {
	listings := []Listing{
		{Link: "x", Position: 10},
		{Link: "y", Position: 0},
		{Link: "z", Position: 3},
		{Link: "w", Position: 3},
	}

	Renumber(listings)

	assert.Equal(t, []string{"w", "z", "x", "y"}, linksOf(listings))
	for i, l := range listings {
		assert.Equal(t, i+1, l.Position)
	}
	assert.False(t, HasPositionConflicts(listings))
}

func linksOf(listings []Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Link
	}
	return out
}
