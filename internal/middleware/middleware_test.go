package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/unimind/wellness-api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := utils.NewTokenManager("s3cret", time.Hour)
	valid, err := tokens.Generate("665f1f77bcf86cd799439011", "therapist1", "counselor")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	other, err := utils.NewTokenManager("other", time.Hour).Generate("x", "x", "student")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	r := gin.New()
	r.GET("/private", AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": c.GetString(ContextUserID), "role": c.GetString(ContextUserRole)})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + other, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

type countingRejections struct{ n int }

func (c *countingRejections) RateLimited() { c.n++ }

func TestRateLimitPerIP(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	rejected := &countingRejections{}

	r := gin.New()
	r.POST("/book", RateLimit(rl, rejected), func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/book", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1"); code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i, code)
		}
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 over burst, got %d", code)
	}
	if code := send("10.0.0.2"); code != http.StatusCreated {
		t.Fatalf("expected separate budget for another IP, got %d", code)
	}
	if rejected.n != 1 {
		t.Fatalf("expected 1 rejection counted, got %d", rejected.n)
	}
}

func TestRateLimiterCleanupEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("10.0.0.1")
	now = now.Add(time.Minute)
	rl.Allow("10.0.0.2")

	now = now.Add(clientIdleTTL + time.Second - time.Minute)
	rl.cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Fatalf("expected idle client to be evicted")
	}
	if _, ok := rl.clients["10.0.0.2"]; !ok {
		t.Fatalf("expected recent client to be kept")
	}
}

type observed struct {
	method, route string
	status        int
}

type recordingObserver struct{ calls []observed }

func (o *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.calls = append(o.calls, observed{method, route, status})
}

func TestRequestLoggerAndID(t *testing.T) {
	hookLogger, hook := logtest.NewNullLogger()
	obs := &recordingObserver{}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logrus.NewEntry(hookLogger), obs))
	r.GET("/appointments/therapist/:therapistId", func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{"message": "Therapist not found"}) })

	req := httptest.NewRequest(http.MethodGet, "/appointments/therapist/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	id := w.Header().Get(RequestIDHeader)
	if id == "" {
		t.Fatalf("expected a generated request id")
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatalf("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel {
		t.Fatalf("expected warn level for 404, got %s", entry.Level)
	}
	if entry.Data["request_id"] != id || entry.Data["route"] != "/appointments/therapist/:therapistId" || entry.Data["status"] != http.StatusNotFound {
		t.Fatalf("unexpected fields %v", entry.Data)
	}

	if len(obs.calls) != 1 || obs.calls[0] != (observed{http.MethodGet, "/appointments/therapist/:therapistId", http.StatusNotFound}) {
		t.Fatalf("unexpected observations %+v", obs.calls)
	}

	req = httptest.NewRequest(http.MethodGet, "/appointments/therapist/ghost", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected incoming request id to be echoed, got %q", got)
	}
}
