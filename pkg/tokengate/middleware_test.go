package tokengate

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestMiddleware_AllowedRequest(t *testing.T) {
	limiter, err := NewLimiter(WithClock(NewManualClock(time.Unix(0, 0))))
	if err != nil {
		t.Fatalf("NewLimiter() failed: %v", err)
	}
	if err := limiter.RegisterUser("ip:192.168.1.1", 5, 1.0); err != nil {
		t.Fatalf("RegisterUser() failed: %v", err)
	}

	handler := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "5" {
		t.Errorf("X-RateLimit-Limit = %s, want 5", rr.Header().Get("X-RateLimit-Limit"))
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "4" {
		t.Errorf("X-RateLimit-Remaining = %s, want 4", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Body.String() != "success" {
		t.Errorf("body = %q, want success", rr.Body.String())
	}
}

func TestMiddleware_RateLimited(t *testing.T) {
	limiter, err := NewLimiter(WithClock(NewManualClock(time.Unix(0, 0))))
	if err != nil {
		t.Fatalf("NewLimiter() failed: %v", err)
	}
	if err := limiter.RegisterUser("ip:192.168.1.1", 3, 0.5); err != nil {
		t.Fatalf("RegisterUser() failed: %v", err)
	}

	handler := limiter.Middleware(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %s, want 0", rr.Header().Get("X-RateLimit-Remaining"))
	}
	// Empty bucket at 0.5 tokens/sec: next token in 2 seconds.
	if got := rr.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %s, want 2", got)
	}
	if rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset should be set when rate limited")
	}
}

func TestMiddleware_UnknownKeyFailClosed(t *testing.T) {
	limiter, err := NewLimiter(WithClock(NewManualClock(time.Unix(0, 0))))
	if err != nil {
		t.Fatalf("NewLimiter() failed: %v", err)
	}

	handler := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d (fail closed by default)", rr.Code, http.StatusForbidden)
	}
}

func TestMiddleware_UnknownKeyFailOpen(t *testing.T) {
	limiter, err := NewLimiter(
		WithClock(NewManualClock(time.Unix(0, 0))),
		WithFailOpen(true),
	)
	if err != nil {
		t.Fatalf("NewLimiter() failed: %v", err)
	}

	handler := limiter.Middleware(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (fail open)", rr.Code, http.StatusOK)
	}
}

func TestMiddleware_AutoRegisterFromDefaults(t *testing.T) {
	limiter, err := NewLimiter(
		WithClock(NewManualClock(time.Unix(0, 0))),
		WithConfig(&Config{
			Defaults: &PolicyConfig{Capacity: 2, RefillRate: 0.1},
		}),
	)
	if err != nil {
		t.Fatalf("NewLimiter() failed: %v", err)
	}

	handler := limiter.Middleware(okHandler())

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = "203.0.113.5:40000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	// First sight registers the key with the defaults policy.
	for i := 0; i < 2; i++ {
		if rr := send(); rr.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}
	if rr := send(); rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d after defaults budget is spent", rr.Code, http.StatusTooManyRequests)
	}
}

func TestMiddleware_DifferentClientsIsolated(t *testing.T) {
	limiter, err := NewLimiter(
		WithClock(NewManualClock(time.Unix(0, 0))),
		WithConfig(&Config{
			Defaults: &PolicyConfig{Capacity: 1, RefillRate: 0.1},
		}),
	)
	if err != nil {
		t.Fatalf("NewLimiter() failed: %v", err)
	}

	handler := limiter.Middleware(okHandler())

	send := func(addr string) int {
		req := httptest.NewRequest("GET", "/test", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if got := send("192.168.1.1:1"); got != http.StatusOK {
		t.Errorf("client A first request: status = %d, want 200", got)
	}
	if got := send("192.168.1.1:1"); got != http.StatusTooManyRequests {
		t.Errorf("client A second request: status = %d, want 429", got)
	}
	// Client B has its own bucket.
	if got := send("192.168.1.2:1"); got != http.StatusOK {
		t.Errorf("client B first request: status = %d, want 200", got)
	}
}

func TestMiddleware_KeyExtractionFailure(t *testing.T) {
	limiter, err := NewLimiter(
		WithClock(NewManualClock(time.Unix(0, 0))),
		WithKeyExtractor(ExtractHeader("X-API-Key")),
	)
	if err != nil {
		t.Fatalf("NewLimiter() failed: %v", err)
	}

	handler := limiter.Middleware(okHandler())

	// No X-API-Key header: rejected under the default fail-closed policy.
	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusForbidden)
	}
}
