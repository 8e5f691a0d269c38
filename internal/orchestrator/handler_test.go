package orchestrator

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(t *testing.T, store Store) *chi.Mux {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	r := chi.NewRouter()
	NewHandler(store, log).Routes(r)
	return r
}

func TestHandler_GetStatus(t *testing.T) {
	store := NewInMemoryStore()
	store.Update(func(s *Snapshot) {
		s.State = StateActive.String()
		s.Playing = true
		s.Track = Track{Title: "Bar", Artist: "Foo"}
		s.Sessions = 3
	})
	r := newTestRouter(t, store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["state"] != "active" || got["playing"] != true || got["sessions"] != float64(3) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	track, _ := got["track"].(map[string]any)
	if track["title"] != "Bar" || track["artist"] != "Foo" {
		t.Errorf("unexpected track %v", track)
	}
	if _, ok := got["last_error"]; ok {
		t.Error("last_error should be omitted when empty")
	}
}

func TestHandler_Health(t *testing.T) {
	r := newTestRouter(t, NewInMemoryStore())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_method_not_allowed(t *testing.T) {
	r := newTestRouter(t, NewInMemoryStore())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
