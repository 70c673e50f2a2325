package signal

import (
	"testing"
	"time"
)

func TestRateLimiter_WindowPerKey(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two attempts should pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third attempt inside window should be blocked")
	}
	if !rl.Allow("b") {
		t.Fatalf("keys must be independent")
	}

	now = now.Add(1100 * time.Millisecond)
	if !rl.Allow("a") {
		t.Fatalf("attempt after window should pass")
	}
}
