package feed

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	base := 100 * time.Millisecond
	cap := 800 * time.Millisecond

	cases := []struct {
		attempt uint32
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 800 * time.Millisecond}, // capped
	}

	for _, c := range cases {
		if got := backoffDelay(c.attempt, base, cap); got != c.want {
			t.Errorf("backoffDelay(%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestBackoffDelay_NeverExceedsCapEvenForLargeAttempts(t *testing.T) {
	base := time.Millisecond
	cap := time.Second
	if got := backoffDelay(63, base, cap); got != cap {
		t.Errorf("backoffDelay(63) = %v, want %v (cap)", got, cap)
	}
}
