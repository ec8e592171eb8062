package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"calorie-log/internal/models"
	"calorie-log/internal/oracle"
	perr "calorie-log/internal/platform/errors"
	"calorie-log/internal/storage"
	"calorie-log/internal/tracker"
)

// fakeOllama replies to text requests with textReply and to vision requests
// (those carrying images) with visionReply
func fakeOllama(t *testing.T, textReply, visionReply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Images []string `json:"images"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		reply := textReply
		for _, m := range req.Messages {
			if len(m.Images) > 0 {
				reply = visionReply
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"content": reply}})
	}))
	t.Cleanup(srv.Close)
	return srv
}

type harness struct {
	handler http.Handler
	store   *storage.SQLiteStorage
}

func newHarness(t *testing.T, ollamaURL string) *harness {
	t.Helper()
	clock := func() time.Time { return time.Date(2026, 10, 17, 19, 0, 0, 0, time.UTC) }
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "calorie.db"), storage.WithClock(clock))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	client := oracle.NewClient(oracle.Config{BaseURL: ollamaURL})
	return &harness{handler: NewRouter(tracker.New(client, client, store), 0), store: store}
}

func (h *harness) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("response is not JSON: %q", rec.Body.String())
		}
	}
	return rec, out
}

func TestChatEmptyIs400(t *testing.T) {
	h := newHarness(t, fakeOllama(t, "", "").URL)
	for _, body := range []string{"", `{}`, `{"message":"   "}`, `{"message":"","image":""}`} {
		rec, out := h.do(t, http.MethodPost, "/api/chat", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%q: status %d", body, rec.Code)
		}
		if out["error"] != "Please enter a message or add an image" {
			t.Fatalf("%q: body %v", body, out)
		}
		if out["code"] != float64(perr.ErrorCodeValidation) {
			t.Fatalf("%q: code %v", body, out["code"])
		}
	}
}

func TestChatMealThenCount(t *testing.T) {
	h := newHarness(t, fakeOllama(t, `{"calories": 350, "breakdown": "two eggs and toast"}`, "").URL)

	rec, out := h.do(t, http.MethodPost, "/api/chat", `{"message":"2 eggs and toast"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %v", rec.Code, out)
	}
	if out["type"] != "meal" || out["mealCalories"] != float64(350) || out["dailyTotal"] != float64(350) ||
		out["breakdown"] != "two eggs and toast" {
		t.Fatalf("meal reply = %v", out)
	}

	_, out = h.do(t, http.MethodPost, "/api/chat", `{"message":"calorie count"}`)
	if out["type"] != "calorie_count" || out["dailyTotal"] != float64(350) ||
		out["message"] != "Your total for today: **350** calories." {
		t.Fatalf("count reply = %v", out)
	}
}

func TestChatUnrecognized(t *testing.T) {
	h := newHarness(t, fakeOllama(t, `{"calories": 0, "unrecognized": true}`, "").URL)
	if err := h.store.SetTotal(context.Background(), 120); err != nil {
		t.Fatal(err)
	}

	_, out := h.do(t, http.MethodPost, "/api/chat", `{"message":"hello"}`)
	if out["type"] != "unrecognized" || out["message"] != models.UnrecognizedMessage {
		t.Fatalf("reply = %v", out)
	}
	if len(out) != 2 {
		t.Fatalf("unrecognized reply should only carry type and message: %v", out)
	}
	if total, _ := h.store.GetTotal(context.Background()); total != 120 {
		t.Fatalf("total changed to %d", total)
	}
}

func TestChatLastMealAndHistory(t *testing.T) {
	h := newHarness(t, fakeOllama(t, `{"calories": 600}`, "").URL)
	if err := h.store.SetTotal(context.Background(), 1400); err != nil {
		t.Fatal(err)
	}

	_, out := h.do(t, http.MethodPost, "/api/chat", `{"message":"Last meal: steak and potatoes"}`)
	if out["type"] != "last_meal" || out["dayTotal"] != float64(2000) || out["daySaved"] != "2026-10-17" {
		t.Fatalf("reply = %v", out)
	}
	if _, ok := out["breakdown"]; !ok {
		t.Fatalf("breakdown key should be present (null): %v", out)
	}

	rec, out := h.do(t, http.MethodGet, "/api/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	hist, _ := out["history"].([]any)
	if len(hist) != 1 {
		t.Fatalf("history = %v", out)
	}
	entry := hist[0].(map[string]any)
	if entry["date"] != "2026-10-17" || entry["total_calories"] != float64(2000) {
		t.Fatalf("entry = %v", entry)
	}
}

func TestChatWithImage(t *testing.T) {
	h := newHarness(t, fakeOllama(t, `{"calories": 480}`, "a bowl of ramen with egg").URL)
	img := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg"))

	rec, out := h.do(t, http.MethodPost, "/api/chat", `{"message":"dinner","image":"`+img+`"}`)
	if rec.Code != http.StatusOK || out["type"] != "meal" || out["mealCalories"] != float64(480) {
		t.Fatalf("status %d reply = %v", rec.Code, out)
	}
}

func TestChatImageEmptyDescriptionIs500(t *testing.T) {
	h := newHarness(t, fakeOllama(t, `{"calories": 480}`, "  ").URL)
	img := base64.StdEncoding.EncodeToString([]byte("jpeg"))

	rec, out := h.do(t, http.MethodPost, "/api/chat", `{"image":"`+img+`"}`)
	if rec.Code != http.StatusInternalServerError || out["error"] != "Vision model returned empty description" {
		t.Fatalf("status %d body %v", rec.Code, out)
	}
}

func TestChatBadImageIs400(t *testing.T) {
	h := newHarness(t, fakeOllama(t, "", "").URL)
	rec, out := h.do(t, http.MethodPost, "/api/chat", `{"image":"not base64!"}`)
	if rec.Code != http.StatusBadRequest || out["field"] != "image" {
		t.Fatalf("status %d body %v", rec.Code, out)
	}
}

func TestOracleDownIs500WithRemedy(t *testing.T) {
	srv := fakeOllama(t, "", "")
	url := srv.URL
	srv.Close()
	h := newHarness(t, url)

	rec, out := h.do(t, http.MethodPost, "/api/estimate", `{"food":"toast"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	if out["error"] != "Could not estimate calories. Is Ollama running? Try: ollama run llama3.2" {
		t.Fatalf("body %v", out)
	}
}

func TestEstimateAndLastMealEndpoints(t *testing.T) {
	h := newHarness(t, fakeOllama(t, "about 250 calories", "").URL)

	for _, path := range []string{"/api/estimate", "/api/last-meal"} {
		rec, out := h.do(t, http.MethodPost, path, `{"food":"  "}`)
		if rec.Code != http.StatusBadRequest || out["error"] != "Please provide a food description" {
			t.Fatalf("%s blank: status %d body %v", path, rec.Code, out)
		}
		rec, _ = h.do(t, http.MethodPost, path, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s empty body: status %d", path, rec.Code)
		}
	}

	_, out := h.do(t, http.MethodPost, "/api/estimate", `{"food":"a banana"}`)
	if out["mealCalories"] != float64(250) || out["dailyTotal"] != float64(250) {
		t.Fatalf("estimate = %v", out)
	}
	if _, ok := out["type"]; ok {
		t.Fatalf("estimate endpoint should not tag its reply: %v", out)
	}

	_, out = h.do(t, http.MethodPost, "/api/calorie-count", "")
	if out["dailyTotal"] != float64(250) {
		t.Fatalf("count = %v", out)
	}

	_, out = h.do(t, http.MethodPost, "/api/last-meal", `{"food":"an apple"}`)
	if out["dayTotal"] != float64(500) || out["daySaved"] != "2026-10-17" {
		t.Fatalf("last meal = %v", out)
	}

	_, out = h.do(t, http.MethodPost, "/api/calorie-count", "")
	if out["dailyTotal"] != float64(0) {
		t.Fatalf("count after close = %v", out)
	}
}

func TestMalformedJSONIs400(t *testing.T) {
	h := newHarness(t, fakeOllama(t, "", "").URL)
	rec, out := h.do(t, http.MethodPost, "/api/chat", `{"message":`)
	if rec.Code != http.StatusBadRequest || out["code"] != float64(perr.ErrorCodeJSON) {
		t.Fatalf("status %d body %v", rec.Code, out)
	}
}

func TestRequestIDAndCORS(t *testing.T) {
	h := newHarness(t, fakeOllama(t, "", "").URL)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") != "req-123" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get("X-Request-ID"))
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS header: %v", rec.Header())
	}

	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id should be generated")
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newHarness(t, fakeOllama(t, "", "").URL)
	rec, out := h.do(t, http.MethodGet, "/api/nope", "")
	if rec.Code != http.StatusNotFound || out["code"] != float64(perr.ErrorCodeNotFound) {
		t.Fatalf("status %d body %v", rec.Code, out)
	}
}

func TestRecoverJSON(t *testing.T) {
	handler := recoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out["code"] != float64(perr.ErrorCodePanic) {
		t.Fatalf("body %v", out)
	}
}
