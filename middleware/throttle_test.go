package middleware

import (
	"testing"
	"time"
)

func TestThrottlerAllow(t *testing.T) {
	th := newThrottler(3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		if !th.allow("1.2.3.4", now) {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if th.allow("1.2.3.4", now) {
		t.Error("Expected fourth request to be throttled")
	}

	// Other clients are counted independently
	if !th.allow("5.6.7.8", now) {
		t.Error("Expected a different client to be allowed")
	}
}

func TestThrottlerWindowExpiry(t *testing.T) {
	th := newThrottler(1, time.Minute)
	now := time.Now()

	if !th.allow("1.2.3.4", now) {
		t.Fatal("Expected first request to be allowed")
	}
	if th.allow("1.2.3.4", now.Add(30*time.Second)) {
		t.Error("Expected request inside the window to be throttled")
	}
	if !th.allow("1.2.3.4", now.Add(61*time.Second)) {
		t.Error("Expected request after the window to be allowed")
	}
}
