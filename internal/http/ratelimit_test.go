package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	rl := newRateLimiter(2)
	rl.now = func() time.Time { return now }
	var m securityMetrics

	for i := 0; i < 2; i++ {
		if !rl.allow("10.0.0.1", &m) {
			t.Fatalf("request %d rejected", i)
		}
	}
	if rl.allow("10.0.0.1", &m) {
		t.Fatal("third request within a minute should be rejected")
	}
	if !rl.allow("10.0.0.2", &m) {
		t.Fatal("other clients have their own budget")
	}
	if m.rateLimitHits != 1 {
		t.Errorf("rateLimitHits = %d, want 1", m.rateLimitHits)
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("10.0.0.1", &m) {
		t.Fatal("budget should reset after a minute")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	rl := newRateLimiter(5)
	rl.now = func() time.Time { return now }

	rl.allow("10.0.0.1", nil)
	rl.allow("10.0.0.2", nil)
	if rl.size() != 2 {
		t.Fatalf("size = %d", rl.size())
	}

	now = now.Add(11 * time.Minute)
	rl.allow("10.0.0.3", nil)
	if rl.size() != 1 {
		t.Fatalf("stale clients not swept, size = %d", rl.size())
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	var nilLimiter *rateLimiter
	if !nilLimiter.allow("x", nil) || !newRateLimiter(0).allow("x", nil) {
		t.Fatal("disabled limiter must allow")
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		want       string
	}{
		{"direct", "203.0.113.5:4000", "", "203.0.113.5"},
		{"untrusted peer ignores header", "203.0.113.5:4000", "198.51.100.1", "203.0.113.5"},
		{"trusted proxy", "10.0.0.2:4000", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy bad header", "10.0.0.2:4000", "not-an-ip", "10.0.0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
