package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func captureLog(t *testing.T, handler http.HandlerFunc, path string) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(Logger(zerolog.New(&buf)))
	r.Get("/agents/{slug}", handler)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	return entry
}

func TestLoggerRecordsRouteAndSize(t *testing.T) {
	entry := captureLog(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}, "/agents/aria")

	if entry["route"] != "/agents/{slug}" {
		t.Errorf("route = %v, want /agents/{slug}", entry["route"])
	}
	if entry["path"] != "/agents/aria" {
		t.Errorf("path = %v, want /agents/aria", entry["path"])
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if entry["bytes_out"] != float64(5) {
		t.Errorf("bytes_out = %v, want 5", entry["bytes_out"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestLoggerServerErrorsLogAtErrorLevel(t *testing.T) {
	entry := captureLog(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, "/agents/aria")

	if entry["status"] != float64(http.StatusInternalServerError) {
		t.Errorf("status = %v, want 500", entry["status"])
	}
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
}
