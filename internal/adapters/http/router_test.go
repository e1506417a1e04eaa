package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/viralforge/attribution-engine/internal/application"
	"github.com/viralforge/attribution-engine/internal/engine"
)

func newTestRouter() http.Handler {
	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			AttributionWindow: 24 * time.Hour,
			MinConfidence:     0.5,
			TierTimeout:       time.Second,
		},
		ClickStore: engine.NewClickStore(engine.ClickStoreConfig{Window: 24 * time.Hour}),
		Model:      engine.NewAdaptiveModel(engine.ModelConfig{}),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return NewRouter(NewHandler(svc))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	router := newTestRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, rec.Code)
		}
		if body := decodeResponse(t, rec); body["status"] != "success" {
			t.Fatalf("%s envelope wrong: %v", path, body)
		}
	}
}

func TestRecordClickDefaultsIPFromForwardedHeader(t *testing.T) {
	t.Parallel()
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/attribution/v1/clicks",
		strings.NewReader(`{"link_id":"link-1","user_id":"user-1"}`))
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeResponse(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["ip_address"] != "198.51.100.7" {
		t.Fatalf("ip should default to the first forwarded hop, got %v", data["ip_address"])
	}
	if id, _ := data["id"].(string); id == "" {
		t.Fatalf("click id must be populated: %v", data)
	}
}

func TestRecordClickRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/attribution/v1/clicks",
		strings.NewReader(`{"link_id":"link-1","user_id":"user-1","surprise":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields must be rejected, got %d", rec.Code)
	}
	if body := decodeResponse(t, rec); body["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", body)
	}
}

func TestRecordClickMissingUserID(t *testing.T) {
	t.Parallel()
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/attribution/v1/clicks",
		strings.NewReader(`{"link_id":"link-1"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeResponse(t, rec); body["code"] != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %v", body)
	}
}

func TestFeedbackWithoutStoreIsUnavailable(t *testing.T) {
	t.Parallel()
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/attribution/v1/attributions/attr-1/feedback",
		strings.NewReader(`{"confirmed":true}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an attribution store, got %d", rec.Code)
	}
	if body := decodeResponse(t, rec); body["code"] != "UNAVAILABLE" {
		t.Fatalf("expected UNAVAILABLE, got %v", body)
	}
}

func TestRequestIDEchoedBack(t *testing.T) {
	t.Parallel()
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/attribution/v1/clicks/stats", nil)
	req.Header.Set("X-Request-Id", "req-42")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("stats returned %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") != "req-42" {
		t.Fatalf("request id must be echoed, got %q", rec.Header().Get("X-Request-Id"))
	}
}
