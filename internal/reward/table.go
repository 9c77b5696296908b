package reward

import (
	"fmt"
	"math"

	"mine_economy/internal/domain"
)

// Entry is one payout of a table and its relative weight.
type Entry struct {
	Value  int64   `json:"value"`
	Weight float64 `json:"weight"`
}

// Table is an ordered list of weighted payouts. Order matters: Draw walks it
// front to back, so the same random value always picks the same entry.
type Table []Entry

// Total returns the sum of weights.
func (t Table) Total() float64 {
	var total float64
	for _, e := range t {
		total += e.Weight
	}
	return total
}

// Validate rejects tables that cannot be drawn from.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: empty table", domain.ErrInvalidRewardTable)
	}
	for i, e := range t {
		if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight < 0 {
			return fmt.Errorf("%w: entry %d has weight %v", domain.ErrInvalidRewardTable, i, e.Weight)
		}
	}
	if t.Total() <= 0 {
		return fmt.Errorf("%w: zero total weight", domain.ErrInvalidRewardTable)
	}
	return nil
}

// Draw picks an entry with probability proportional to its weight: r is drawn
// from [0, total) and the first entry whose cumulative weight exceeds r wins.
func Draw(src Source, t Table) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	r := src.Float64() * t.Total()
	var cumulative float64
	for _, e := range t {
		cumulative += e.Weight
		if cumulative > r {
			return e.Value, nil
		}
	}
	// Rounding can leave r equal to the summed total; fall back to the last
	// entry that carries weight.
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Weight > 0 {
			return t[i].Value, nil
		}
	}
	return 0, fmt.Errorf("%w: zero total weight", domain.ErrInvalidRewardTable)
}
