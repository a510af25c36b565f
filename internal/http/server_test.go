package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"expensed/internal/auth"
	"expensed/internal/store/file"
)

const testAdminToken = "12345"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	backend, err := file.New(filepath.Join(t.TempDir(), "expenses-data.json"))
	if err != nil {
		t.Fatalf("file.New error = %v", err)
	}
	s := NewServer(Options{
		Addr:       ":0",
		Backend:    backend,
		Authorizer: auth.NewStaticToken(testAdminToken),
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)
	return w
}

func decodeObject(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &obj); err != nil {
		t.Fatalf("response is not a JSON object: %v\nbody: %s", err, w.Body.String())
	}
	return obj
}

func decodeArray(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var arr []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &arr); err != nil {
		t.Fatalf("response is not a JSON array: %v\nbody: %s", err, w.Body.String())
	}
	return arr
}

func TestExpenseLifecycle(t *testing.T) {
	s := newTestServer(t)

	// Create
	w := doJSON(t, s, "POST", "/expenses",
		`{"title":"Groceries","amount":150,"category":"Food","date":"2024-11-24","description":"weekly shopping"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201\nbody: %s", w.Code, w.Body.String())
	}
	created := decodeObject(t, w)
	if created["id"] != float64(1) {
		t.Errorf("created id = %v, want 1", created["id"])
	}
	if created["timestamp"] == nil {
		t.Error("created response missing timestamp")
	}
	if created["amount"] != float64(150) {
		t.Errorf("created amount = %v, want 150", created["amount"])
	}

	// Get
	w = doJSON(t, s, "GET", "/expenses/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", w.Code)
	}
	got := decodeObject(t, w)
	if got["title"] != "Groceries" {
		t.Errorf("title = %v", got["title"])
	}

	// Patch a single field
	w = doJSON(t, s, "PATCH", "/expenses/1", `{"amount":175.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want 200\nbody: %s", w.Code, w.Body.String())
	}
	patched := decodeObject(t, w)
	if patched["amount"] != float64(175.5) {
		t.Errorf("patched amount = %v, want 175.5", patched["amount"])
	}
	if patched["title"] != "Groceries" {
		t.Errorf("patched title = %v, unsupplied fields must be preserved", patched["title"])
	}

	// Replace
	w = doJSON(t, s, "PUT", "/expenses/1",
		`{"title":"Monthly rent","amount":800,"category":"Housing","date":"2024-12-01","description":"december rent"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("replace status = %d, want 200\nbody: %s", w.Code, w.Body.String())
	}
	replaced := decodeObject(t, w)
	if replaced["category"] != "Housing" {
		t.Errorf("replaced category = %v", replaced["category"])
	}

	// Delete returns the removed record
	w = doJSON(t, s, "DELETE", "/expenses/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, want 200", w.Code)
	}
	deleted := decodeObject(t, w)
	if deleted["title"] != "Monthly rent" {
		t.Errorf("deleted title = %v", deleted["title"])
	}

	// Gone afterwards
	w = doJSON(t, s, "GET", "/expenses/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestCreateValidationErrors(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/expenses", `{"title":"ab","amount":-5,"category":"","date":"bad"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\nbody: %s", w.Code, w.Body.String())
	}

	body := decodeObject(t, w)
	errs, ok := body["errors"].([]any)
	if !ok {
		t.Fatalf("body should carry an errors array: %s", w.Body.String())
	}
	if len(errs) != 4 {
		t.Errorf("got %d field errors, want 4: %v", len(errs), errs)
	}
	if body["timestamp"] == nil {
		t.Error("error response missing timestamp")
	}

	// Nothing was stored
	w = doJSON(t, s, "GET", "/expenses", "")
	if arr := decodeArray(t, w); len(arr) != 0 {
		t.Errorf("store should be empty, got %d records", len(arr))
	}
}

func TestCreateMalformedBody(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/expenses", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListEnvelopePerElement(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"title":"Groceries","amount":150,"category":"Food","date":"2024-11-24"}`,
		`{"title":"Bus ticket","amount":2.5,"category":"Transport","date":"2024-11-25"}`,
	} {
		if w := doJSON(t, s, "POST", "/expenses", body); w.Code != http.StatusCreated {
			t.Fatalf("create status = %d\nbody: %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, s, "GET", "/expenses", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d, want 200", w.Code)
	}
	arr := decodeArray(t, w)
	if len(arr) != 2 {
		t.Fatalf("got %d records, want 2", len(arr))
	}
	for i, obj := range arr {
		if obj["timestamp"] == nil {
			t.Errorf("element %d missing timestamp", i)
		}
	}
	if arr[0]["title"] != "Groceries" || arr[1]["title"] != "Bus ticket" {
		t.Error("list must preserve stored order")
	}
}

func TestSearchExpenses(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"title":"Groceries","amount":100,"category":"Food","date":"2024-11-20"}`,
		`{"title":"Bus ticket","amount":2.5,"category":"Transport","date":"2024-11-21"}`,
		`{"title":"Dinner out","amount":100,"category":"Food","date":"2024-11-22"}`,
	} {
		if w := doJSON(t, s, "POST", "/expenses", body); w.Code != http.StatusCreated {
			t.Fatalf("create status = %d\nbody: %s", w.Code, w.Body.String())
		}
	}

	t.Run("category filter", func(t *testing.T) {
		w := doJSON(t, s, "GET", "/expenses/search?category=Food", "")
		if arr := decodeArray(t, w); len(arr) != 2 {
			t.Errorf("got %d records, want 2", len(arr))
		}
	})

	t.Run("min equals max matches exact amount", func(t *testing.T) {
		w := doJSON(t, s, "GET", "/expenses/search?minAmount=100&maxAmount=100", "")
		arr := decodeArray(t, w)
		if len(arr) != 2 {
			t.Errorf("got %d records, want 2", len(arr))
		}
	})

	t.Run("malformed parameter", func(t *testing.T) {
		w := doJSON(t, s, "GET", "/expenses/search?minAmount=abc", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestSummaryByCategory(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"title":"Groceries","amount":100,"category":"Food","date":"2024-11-20"}`,
		`{"title":"Dinner out","amount":50,"category":"Food","date":"2024-11-21"}`,
		`{"title":"Monthly rent","amount":800,"category":"Housing","date":"2024-11-01"}`,
	} {
		if w := doJSON(t, s, "POST", "/expenses", body); w.Code != http.StatusCreated {
			t.Fatalf("create status = %d\nbody: %s", w.Code, w.Body.String())
		}
	}

	w := doJSON(t, s, "GET", "/expenses/summary-by-category", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	arr := decodeArray(t, w)
	if len(arr) != 2 {
		t.Fatalf("got %d rows, want 2", len(arr))
	}
	if arr[0]["category"] != "Housing" || arr[0]["totalAmount"] != float64(800) {
		t.Errorf("first row = %v, want Housing/800", arr[0])
	}
	if arr[1]["category"] != "Food" || arr[1]["totalAmount"] != float64(150) || arr[1]["count"] != float64(2) {
		t.Errorf("second row = %v, want Food/150/2", arr[1])
	}

	t.Run("cache invalidated on mutation", func(t *testing.T) {
		if w := doJSON(t, s, "DELETE", "/expenses/3", ""); w.Code != http.StatusOK {
			t.Fatalf("delete status = %d", w.Code)
		}

		w := doJSON(t, s, "GET", "/expenses/summary-by-category", "")
		arr := decodeArray(t, w)
		if len(arr) != 1 || arr[0]["category"] != "Food" {
			t.Errorf("summary after delete = %v, want only Food", arr)
		}
	})
}

func TestAverageDaily(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{
		`{"title":"Groceries","amount":50,"category":"Food","date":"2024-11-20"}`,
		`{"title":"Dinner out","amount":25,"category":"Food","date":"2024-11-22"}`,
	} {
		if w := doJSON(t, s, "POST", "/expenses", body); w.Code != http.StatusCreated {
			t.Fatalf("create status = %d\nbody: %s", w.Code, w.Body.String())
		}
	}

	t.Run("three day span", func(t *testing.T) {
		w := doJSON(t, s, "GET", "/expenses/average-daily?startDate=2024-11-20&endDate=2024-11-22", "")
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200\nbody: %s", w.Code, w.Body.String())
		}
		body := decodeObject(t, w)
		if body["totalAmount"] != float64(75) {
			t.Errorf("totalAmount = %v, want 75", body["totalAmount"])
		}
		if body["averageDaily"] != float64(25) {
			t.Errorf("averageDaily = %v, want 25", body["averageDaily"])
		}
		if body["daysCount"] != float64(3) {
			t.Errorf("daysCount = %v, want 3", body["daysCount"])
		}
	})

	t.Run("inverted range", func(t *testing.T) {
		w := doJSON(t, s, "GET", "/expenses/average-daily?startDate=2024-11-22&endDate=2024-11-20", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("missing dates", func(t *testing.T) {
		w := doJSON(t, s, "GET", "/expenses/average-daily", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestCategoriesEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "POST", "/categories", `{"name":"Travel"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create category status = %d\nbody: %s", w.Code, w.Body.String())
	}
	cat := decodeObject(t, w)
	if cat["name"] != "Travel" {
		t.Errorf("name = %v", cat["name"])
	}

	t.Run("duplicate name rejected", func(t *testing.T) {
		w := doJSON(t, s, "POST", "/categories", `{"name":"Travel"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("short name rejected", func(t *testing.T) {
		w := doJSON(t, s, "POST", "/categories", `{"name":"ab"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("expense write registers its category", func(t *testing.T) {
		if w := doJSON(t, s, "POST", "/expenses",
			`{"title":"Groceries","amount":100,"category":"Food","date":"2024-11-20"}`); w.Code != http.StatusCreated {
			t.Fatalf("create expense status = %d", w.Code)
		}

		w := doJSON(t, s, "GET", "/categories", "")
		arr := decodeArray(t, w)
		names := map[string]bool{}
		for _, c := range arr {
			names[c["name"].(string)] = true
		}
		if !names["Travel"] || !names["Food"] {
			t.Errorf("categories = %v, want Travel and Food", arr)
		}
	})
}

func TestAdminEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing credential", func(t *testing.T) {
		w := doJSON(t, s, "GET", "/admin", "")
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("wrong credential", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/admin", nil)
		r.Header.Set("Authorization", "wrong")
		w := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("correct credential reports counters", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/admin", nil)
		r.Header.Set("Authorization", testAdminToken)
		w := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}

		body := decodeObject(t, w)
		// Two rejected attempts above plus this one went through the
		// tracer.
		total, ok := body["total_requests"].(float64)
		if !ok || total < 3 {
			t.Errorf("total_requests = %v, want >= 3", body["total_requests"])
		}
		if _, ok := body["last_response_time_ms"].(float64); !ok {
			t.Errorf("last_response_time_ms missing: %v", body)
		}
		if _, ok := body["summary_cache_size"].(float64); !ok {
			t.Errorf("summary_cache_size missing: %v", body)
		}
	})
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	if w := doJSON(t, s, "GET", "/healthz", ""); w.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", w.Code)
	}
	if w := doJSON(t, s, "GET", "/readyz", ""); w.Code != http.StatusOK {
		t.Errorf("readyz status = %d, want 200", w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	r := httptest.NewRequest("OPTIONS", "/expenses", nil)
	w := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing Access-Control-Allow-Origin header")
	}
}

func TestNonIntegerIDIsNotFound(t *testing.T) {
	s := newTestServer(t)

	w := doJSON(t, s, "GET", "/expenses/abc", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestEmptyPatchIsNoOp(t *testing.T) {
	s := newTestServer(t)

	if w := doJSON(t, s, "POST", "/expenses",
		`{"title":"Groceries","amount":150,"category":"Food","date":"2024-11-24"}`); w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}

	w := doJSON(t, s, "PATCH", "/expenses/1", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d, want 200", w.Code)
	}
	body := decodeObject(t, w)
	if body["title"] != "Groceries" || body["amount"] != float64(150) {
		t.Errorf("record changed by empty patch: %v", body)
	}
}
