package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowUpToLimit(t *testing.T) {
	l := New(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("attempt over the limit should be blocked")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("a different key should not be affected")
	}
}

func TestLimiter_WindowExpiry(t *testing.T) {
	l := New(1, 20*time.Millisecond)

	if !l.Allow("k") {
		t.Fatal("first attempt should be allowed")
	}
	if l.Allow("k") {
		t.Fatal("second attempt inside the window should be blocked")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k") {
		t.Error("attempt after window expiry should be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := New(1, time.Minute)

	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("should be blocked before reset")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("should be allowed after reset")
	}
}

func TestLoginLimiter_EmailLimit(t *testing.T) {
	ll := NewLoginLimiterWithConfig(100, time.Minute, 2, time.Minute)
	r := httptest.NewRequest("POST", "/auth/login", nil)

	for i := 0; i < 2; i++ {
		if allowed, _ := ll.Check(r, "user@example.com"); !allowed {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	allowed, reason := ll.Check(r, "user@example.com")
	if allowed {
		t.Fatal("attempt over the email limit should be blocked")
	}
	if reason == "" {
		t.Error("blocked attempt should carry a reason")
	}

	// Email matching is case-insensitive.
	if allowed, _ := ll.Check(r, "USER@example.com"); allowed {
		t.Error("case variant of a limited email should be blocked")
	}

	ll.ResetEmail("user@example.com")
	if allowed, _ := ll.Check(r, "user@example.com"); !allowed {
		t.Error("should be allowed after ResetEmail")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:4455"
	if got := ClientIP(r); got != "203.0.113.7" {
		t.Errorf("RemoteAddr: got %q, want 203.0.113.7", got)
	}

	r.Header.Set("X-Real-IP", "198.51.100.2")
	if got := ClientIP(r); got != "198.51.100.2" {
		t.Errorf("X-Real-IP: got %q, want 198.51.100.2", got)
	}

	r.Header.Set("X-Forwarded-For", "192.0.2.9, 10.0.0.1")
	if got := ClientIP(r); got != "192.0.2.9" {
		t.Errorf("X-Forwarded-For: got %q, want 192.0.2.9", got)
	}
}
