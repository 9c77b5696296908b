// Package gear holds the upgrade cost curve and the earn-rate multiplier.
package gear

import "math"

const (
	baseCost      = 50
	costGrowth    = 1.5
	bonusPerLevel = 0.05
	maxCostLevel  = 100

	// Apply works in twentieths so the 5% step floors exactly.
	stepsPerUnit = 20
)

// Cost returns the crystal price of upgrading from level to level+1:
// floor(50 * 1.5^level). Levels past the point where the price no longer fits
// in an int64 return math.MaxInt64, which no balance can pay.
func Cost(level int) int64 {
	if level < 0 {
		level = 0
	}
	if level > maxCostLevel {
		return math.MaxInt64
	}
	c := math.Floor(baseCost * math.Pow(costGrowth, float64(level)))
	if c >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(c)
}

// Multiplier is the earn-rate factor contributed by a gear level.
func Multiplier(level int) float64 {
	if level < 0 {
		level = 0
	}
	return 1 + float64(level)*bonusPerLevel
}

// Apply scales base by the multiplier of level, flooring the result.
func Apply(base int64, level int) int64 {
	if level < 0 {
		level = 0
	}
	return base * int64(stepsPerUnit+level) / stepsPerUnit
}
