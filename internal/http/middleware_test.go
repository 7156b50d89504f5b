package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/akotliarov/weather-favorites/internal/session"
)

// TestCorrelationIDMiddleware_GeneratesID verifies a correlation ID is
// assigned and echoed in the response header.
func TestCorrelationIDMiddleware_GeneratesID(t *testing.T) {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Value("correlation_id") == nil {
			t.Error("correlation_id missing from context")
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))

	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Error("X-Correlation-ID header not set")
	}
}

// TestCorrelationIDMiddleware_EchoesIncoming verifies the caller-supplied ID
// is preserved.
func TestCorrelationIDMiddleware_EchoesIncoming(t *testing.T) {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Correlation-ID", "my-id-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Correlation-ID"); got != "my-id-123" {
		t.Errorf("X-Correlation-ID = %q, want my-id-123", got)
	}
}

// TestSessionMiddleware_IssuesCookie verifies a first contact receives a
// valid long-lived session cookie.
func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	router := mux.NewRouter()
	router.Use(SessionMiddleware("wxsid", 180*24*time.Hour))
	var gotToken string
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		gotToken = sessionFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))

	cookies := rec.Result().Cookies()
	var found *http.Cookie
	for _, c := range cookies {
		if c.Name == "wxsid" {
			found = c
		}
	}
	if found == nil {
		t.Fatal("wxsid cookie not set on first contact")
	}
	if !session.Valid(found.Value) {
		t.Errorf("issued cookie value %q is not a valid token", found.Value)
	}
	if !found.HttpOnly {
		t.Error("cookie not HttpOnly")
	}
	if found.MaxAge != int((180 * 24 * time.Hour).Seconds()) {
		t.Errorf("cookie MaxAge = %d, want %d", found.MaxAge, int((180*24*time.Hour).Seconds()))
	}
	if gotToken != found.Value {
		t.Errorf("context token %q != cookie value %q", gotToken, found.Value)
	}
}

// TestSessionMiddleware_EchoedTokenKept verifies a returning visitor keeps
// their token and gets no replacement cookie.
func TestSessionMiddleware_EchoedTokenKept(t *testing.T) {
	token, _, err := session.Ensure("")
	if err != nil {
		t.Fatalf("session.Ensure error = %v", err)
	}

	router := mux.NewRouter()
	router.Use(SessionMiddleware("wxsid", 180*24*time.Hour))
	var gotToken string
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		gotToken = sessionFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/ping", nil)
	req.AddCookie(&http.Cookie{Name: "wxsid", Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if gotToken != token {
		t.Errorf("context token = %q, want echoed %q", gotToken, token)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "wxsid" {
			t.Error("replacement cookie set for a valid echoed token")
		}
	}
}

// TestRateLimitMiddleware_Denies verifies exhausting the bucket yields 429
// with the standard error envelope.
func TestRateLimitMiddleware_Denies(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 1)

	router := mux.NewRouter()
	router.Use(RateLimitMiddleware(limiter))
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {})

	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, httptest.NewRequest("GET", "/ping", nil))
	if rec1.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec1.Code)
	}

	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, httptest.NewRequest("GET", "/ping", nil))
	if rec2.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec2.Code)
	}
}

// TestGetRoute collapses paths onto templates for metrics.
func TestGetRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/health", want: "/health"},
		{path: "/metrics", want: "/metrics"},
		{path: "/weather/paris", want: "/weather/{place}"},
		{path: "/favorites", want: "/favorites"},
		{path: "/favorites/names", want: "/favorites/names"},
		{path: "/favorites/paris", want: "/favorites/{place}"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.path, nil)
			if got := getRoute(r); got != tc.want {
				t.Errorf("getRoute(%q) = %q, want %q", tc.path, got, tc.want)
			}
		})
	}
}
