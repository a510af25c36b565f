package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMiddlewareCountsRequests(t *testing.T) {
	m := NewMiddleware(nil)

	var seenID string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/expenses", nil))
	}

	metrics := m.GetMetrics()
	if metrics.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", metrics.TotalRequests)
	}
	if metrics.LastResponseTime < 0 {
		t.Errorf("LastResponseTime = %d, want >= 0", metrics.LastResponseTime)
	}
	if !strings.HasPrefix(seenID, "req_") {
		t.Errorf("request id %q not visible to handler", seenID)
	}
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()

	if !strings.HasPrefix(a, "req_") {
		t.Errorf("id %q missing req_ prefix", a)
	}
	if a == b {
		t.Errorf("consecutive ids collide: %q", a)
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if id := GetRequestID(r.Context()); id != "" {
		t.Errorf("GetRequestID on bare context = %q, want empty", id)
	}
}
