package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("key", 5, time.Minute) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("key", 5, time.Minute) {
		t.Error("6th request should be denied")
	}
	if !rl.Allow("other", 5, time.Minute) {
		t.Error("keys should be limited independently")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()

	rl.Allow("expired", 5, 10*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	rl.Allow("active", 5, time.Minute)

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["expired"]; ok {
		t.Error("expired entry should have been cleaned up")
	}
	if _, ok := rl.entries["active"]; !ok {
		t.Error("active entry should still exist")
	}
}

func TestRateLimitMiddlewareJSON(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimit(rl, ByIP, 1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/api/catalog/1/image", nil)
	req.RemoteAddr = "10.0.0.5:5555"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: status = %d, want 429", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestByRouteAndIPSeparatesRoutes(t *testing.T) {
	rl := NewRateLimiter()
	limited := func(next http.HandlerFunc) http.Handler {
		return RateLimit(rl, ByRouteAndIP, 1, time.Minute)(next)
	}
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	mux := http.NewServeMux()
	mux.Handle("POST /api/catalog/{id}/image", limited(ok))
	mux.Handle("POST /api/lists/{id}/items/bulk", limited(ok))

	send := func(path, addr string) int {
		req := httptest.NewRequest("POST", path, nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("/api/catalog/1/image", "10.0.0.5:1"); code != http.StatusOK {
		t.Fatalf("first upload: status = %d", code)
	}
	if code := send("/api/catalog/2/image", "10.0.0.5:2"); code != http.StatusTooManyRequests {
		t.Errorf("same route other product: status = %d, want 429", code)
	}
	if code := send("/api/lists/1/items/bulk", "10.0.0.5:3"); code != http.StatusOK {
		t.Errorf("other route: status = %d, want 200", code)
	}
	if code := send("/api/catalog/1/image", "10.0.0.6:1"); code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", code)
	}
}

func TestByRouteAndIPWithoutMux(t *testing.T) {
	req := httptest.NewRequest("GET", "/plain", nil)
	req.RemoteAddr = "192.168.1.2:1234"
	if got := ByRouteAndIP(req); got != "/plain|192.168.1.2" {
		t.Errorf("key = %q", got)
	}
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.2:1234"
	if got := RealIP(req); got != "192.168.1.2" {
		t.Errorf("RealIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := RealIP(req); got != "203.0.113.9" {
		t.Errorf("RealIP with XFF = %q", got)
	}
}
