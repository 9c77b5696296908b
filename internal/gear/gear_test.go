package gear

import (
	"math"
	"testing"
)

func TestCost(t *testing.T) {
	t.Parallel()
	want := map[int]int64{0: 50, 1: 75, 2: 112, 3: 168, 4: 253, 10: 2883}
	for level, w := range want {
		if got := Cost(level); got != w {
			t.Fatalf("Cost(%d) = %d, want %d", level, got, w)
		}
	}
}

func TestCostStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	prev := Cost(0)
	for level := 1; level <= 60; level++ {
		c := Cost(level)
		if c <= prev {
			t.Fatalf("Cost(%d) = %d, not above Cost(%d) = %d", level, c, level-1, prev)
		}
		prev = c
	}
}

func TestCostSaturates(t *testing.T) {
	t.Parallel()
	if got := Cost(500); got != math.MaxInt64 {
		t.Fatalf("Cost(500) = %d, want MaxInt64", got)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()
	tests := []struct {
		base  int64
		level int
		want  int64
	}{
		{base: 10, level: 0, want: 10},
		{base: 10, level: 1, want: 10},
		{base: 10, level: 2, want: 11},
		{base: 15, level: 4, want: 18},
		{base: 100, level: 10, want: 150},
	}
	for _, tt := range tests {
		if got := Apply(tt.base, tt.level); got != tt.want {
			t.Fatalf("Apply(%d, %d) = %d, want %d", tt.base, tt.level, got, tt.want)
		}
	}
}
