package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gochop/gochop-auth/internal/ratelimit"
)

func governedHandler() http.Handler {
	limiter := ratelimit.New()
	policy := ratelimit.Policy{MaxRequests: 2, Window: time.Minute}
	return Govern(limiter, policy)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestGovernDeniesOverBudget(t *testing.T) {
	h := governedHandler()

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", nil))

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing on denial")
	}

	var body struct {
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message == "" {
		t.Error("denial body missing message")
	}
	if body.RetryAfter <= 0 || body.RetryAfter > 60 {
		t.Errorf("retryAfter = %d, want within (0, 60]", body.RetryAfter)
	}
}

func TestGovernSeparatesCallers(t *testing.T) {
	h := governedHandler()

	exhaust := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	exhaust.RemoteAddr = "1.2.3.4:1111"
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), exhaust)
	}

	other := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
	other.RemoteAddr = "5.6.7.8:2222"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)

	if rec.Code != http.StatusOK {
		t.Errorf("status for distinct caller = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestGovernHonorsForwardedFor(t *testing.T) {
	h := governedHandler()

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", nil)
		req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if i < 2 && rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
		if i == 2 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	if got := clientIP(req); got != "1.2.3.4" {
		t.Errorf("clientIP = %q, want %q", got, "1.2.3.4")
	}

	req.Header.Set("X-Forwarded-For", "9.9.9.9, 10.0.0.1")
	if got := clientIP(req); got != "9.9.9.9" {
		t.Errorf("clientIP with X-Forwarded-For = %q, want %q", got, "9.9.9.9")
	}
}

func TestThrottleLimitsBursts(t *testing.T) {
	h := Throttle(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Errorf("burst requests = %v, first two should pass", statuses)
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Errorf("statuses = %v, want 429 once the burst is spent", statuses)
	}
}
