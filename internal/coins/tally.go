package coins

import (
	"fmt"
	"maps"
	"slices"
)

// Tally accumulates counted coins.
type Tally struct {
	// Counts is keyed by denomination value in cents.
	Counts map[int]int `json:"counts"`
	Coins  int         `json:"coins"`
	Cents  int         `json:"cents"`
}

// NewTally returns an empty tally.
func NewTally() *Tally {
	return &Tally{Counts: make(map[int]int)}
}

// Add counts one coin of denomination d.
func (t *Tally) Add(d Denomination) {
	if t.Counts == nil {
		t.Counts = make(map[int]int)
	}
	t.Counts[d.Cents]++
	t.Coins++
	t.Cents += d.Cents
}

// Reset clears all counts.
func (t *Tally) Reset() {
	clear(t.Counts)
	t.Coins = 0
	t.Cents = 0
}

// Values returns the counted denomination values, largest first.
func (t *Tally) Values() []int {
	values := slices.Sorted(maps.Keys(t.Counts))
	slices.Reverse(values)
	return values
}

// FormatCents renders an amount as euros with two decimals.
func FormatCents(cents int) string {
	return fmt.Sprintf("%d.%02d EUR", cents/100, cents%100)
}
