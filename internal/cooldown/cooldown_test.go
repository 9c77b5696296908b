package cooldown

import (
	"testing"
	"time"
)

func TestCheck(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(-d)
		return &v
	}

	tests := []struct {
		name      string
		last      *time.Time
		eligible  bool
		remaining time.Duration
	}{
		{name: "never", last: nil, eligible: true},
		{name: "one second short", last: at(299 * time.Second), remaining: time.Second},
		{name: "exactly elapsed", last: at(300 * time.Second), eligible: true},
		{name: "long ago", last: at(time.Hour), eligible: true},
		{name: "just now", last: at(0), remaining: 300 * time.Second},
		{name: "sub-second", last: at(299*time.Second + 500*time.Millisecond), remaining: 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Check(tt.last, 300*time.Second, now)
			if got.Eligible != tt.eligible || got.Remaining != tt.remaining {
				t.Fatalf("Check = %+v, want eligible=%v remaining=%v", got, tt.eligible, tt.remaining)
			}
		})
	}
}

func TestNextStreak(t *testing.T) {
	t.Parallel()
	day := 24 * time.Hour
	day0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	if got := NextStreak(nil, 0, day, day0); got != 1 {
		t.Fatalf("first claim streak = %d, want 1", got)
	}
	if got := NextStreak(&day0, 1, day, day0.Add(day)); got != 2 {
		t.Fatalf("next day streak = %d, want 2", got)
	}
	if got := NextStreak(&day0, 1, day, day0.Add(2*day-time.Second)); got != 2 {
		t.Fatalf("end of window streak = %d, want 2", got)
	}
	if got := NextStreak(&day0, 5, day, day0.Add(2*day)); got != 1 {
		t.Fatalf("missed day streak = %d, want 1", got)
	}
	if got := NextStreak(&day0, 5, day, day0.Add(3*day)); got != 1 {
		t.Fatalf("day three streak = %d, want 1", got)
	}
}

func TestSeconds(t *testing.T) {
	t.Parallel()
	cases := map[time.Duration]int64{
		0:                       0,
		-time.Second:            0,
		time.Second:             1,
		1500 * time.Millisecond: 2,
		time.Minute:             60,
	}
	for d, want := range cases {
		if got := Seconds(d); got != want {
			t.Fatalf("Seconds(%v) = %d, want %d", d, got, want)
		}
	}
}
