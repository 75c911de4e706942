package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientAddressParsing(t *testing.T) {
	for input, want := range map[string]string{
		"127.0.0.1":                    "127.0.0.1",
		"127.0.0.1, 192.168.1.1":       "127.0.0.1",
		"10.0.0.1, 10.0.0.2, 10.0.0.3": "10.0.0.1",
		"":                             "",
		"   1.2.3.4   ":                "1.2.3.4",
	} {
		if got := extractFirstIP(input); got != want {
			t.Errorf("extractFirstIP(%q) = %q; want %q", input, got, want)
		}
	}
	for input, want := range map[string]string{
		"127.0.0.1:8080": "127.0.0.1",
		"192.168.1.1":    "192.168.1.1",
		"[::1]:8080":     "::1",
		"[::1]":          "::1",
	} {
		if got := stripPort(input); got != want {
			t.Errorf("stripPort(%q) = %q; want %q", input, got, want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded list wins", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8", "X-Real-IP": "7.7.7.7"}, "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 5.6.7.8 "}, "5.6.7.8"},
		{"remote address", nil, "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = "9.9.9.9:1234"
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityMiddlewareCORS(t *testing.T) {
	reached := false
	next := func(w http.ResponseWriter, r *http.Request) { reached = true }

	cfg := DefaultSecurityConfig()
	cfg.AllowedOrigins = []string{"https://example.org"}
	h := SecurityMiddleware(cfg, next)

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Errorf("Allow-Origin = %q; want the request origin", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Error("a specific origin must vary on Origin")
	}
	if !reached {
		t.Error("GET should reach the handler")
	}

	reached = false
	req = httptest.NewRequest(http.MethodOptions, "/run", http.NoBody)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("an unknown origin must not be allowed")
	}
	if rec.Code != http.StatusNoContent || reached {
		t.Errorf("preflight: code %d, reached %v; want 204 without the handler", rec.Code, reached)
	}

	cfg.EnableCORS = false
	rec = httptest.NewRecorder()
	SecurityMiddleware(cfg, next)(rec, httptest.NewRequest(http.MethodOptions, "/run", http.NoBody))
	if !reached {
		t.Error("without CORS, OPTIONS reaches the handler")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers are always set")
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 2})
	defer rl.Stop()

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatal("burst requests should be allowed")
	}
	if rl.Allow("1.1.1.1") {
		t.Error("third request within the burst window should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Error("another client has its own bucket")
	}
}

func TestRateLimiterEviction(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 10})
	defer rl.Stop()

	rl.Allow("1.2.3.4")
	if rl.Len() != 1 {
		t.Fatalf("Len() = %d; want 1", rl.Len())
	}

	rl.evict(time.Now())
	if rl.Len() != 1 {
		t.Error("a recently seen client must be kept")
	}

	rl.evict(time.Now().Add(rl.idle + time.Second))
	if rl.Len() != 0 {
		t.Error("an idle client should have been evicted")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{CleanupInterval: 10 * time.Millisecond})
	rl.Stop()
	rl.Stop()
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if id := RequestIDFrom(req.Context()); id != "" {
		t.Errorf("RequestIDFrom() = %q; want empty", id)
	}
}

func TestRequestIDRejectsOversizedHeader(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 200))
	h(httptest.NewRecorder(), req)
	if len(seen) != 36 {
		t.Errorf("expected a generated UUID, got %q", seen)
	}
}
