package feed_test

import (
	"testing"
	"time"

	ff "feedreader/internal/feed"
)

func TestExtractHost(t *testing.T) {
	cases := []struct {
		url  string
		host string
	}{
		{"https://example.com/feed.xml", "example.com"},
		{"http://sub.example.com/a/b", "sub.example.com"},
		{"ftp://files.example.com/file.xml", "files.example.com"},
		{"not-a-url", "not-a-url"},
		{"", ""},
	}

	for _, c := range cases {
		if got := ff.ExtractHost(c.url); got != c.host {
			t.Errorf("ExtractHost(%q) = %q, want %q", c.url, got, c.host)
		}
	}
}

func TestRateLimiter_FirstCallPassesImmediately(t *testing.T) {
	rl := ff.NewRateLimiter(50 * time.Millisecond)

	start := time.Now()
	if err := rl.WaitIfNeeded("example.com"); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Fatalf("first call should not block, took %v", elapsed)
	}
}

func TestRateLimiter_SecondCallWaitsMinDelay(t *testing.T) {
	rl := ff.NewRateLimiter(60 * time.Millisecond)

	if err := rl.WaitIfNeeded("example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	start := time.Now()
	if err := rl.WaitIfNeeded("example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected second call to wait close to min delay, took %v", elapsed)
	}
}

func TestRateLimiter_DistinctHostsDoNotInterfere(t *testing.T) {
	rl := ff.NewRateLimiter(time.Second)

	if err := rl.WaitIfNeeded("a.example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := time.Now()
	if err := rl.WaitIfNeeded("b.example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Fatalf("distinct host should not wait on a's limiter, took %v", elapsed)
	}
}
