package http

import (
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	r := newRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if !r.allow(now) || !r.allow(now.Add(time.Second)) {
		t.Fatalf("first two messages should pass")
	}
	if r.allow(now.Add(2 * time.Second)) {
		t.Fatalf("third message in window should be limited")
	}
	if !r.allow(now.Add(time.Minute)) {
		t.Fatalf("new window should reset the counter")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newRateLimiter(0, time.Minute)
	for i := 0; i < 1000; i++ {
		if !r.allow(time.Now()) {
			t.Fatalf("disabled limiter rejected message %d", i)
		}
	}
}
