package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_counters(t *testing.T) {
	m := New()
	m.IncPolls()
	m.IncPolls()
	m.IncProtocolErrors()
	m.IncSessionsStarted()
	m.IncBuildFailures()
	m.IncTerminations(ReasonEOS)
	m.IncTerminations(ReasonEOS)
	m.IncTerminations(ReasonError)
	m.SetState(2)

	if got := testutil.ToFloat64(m.pollsTotal); got != 2 {
		t.Errorf("polls = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.terminationsTotal.WithLabelValues(ReasonEOS)); got != 2 {
		t.Errorf("eos terminations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.terminationsTotal.WithLabelValues(ReasonError)); got != 1 {
		t.Errorf("error terminations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.state); got != 2 {
		t.Errorf("state = %v, want 2", got)
	}
}

func TestMetrics_nil_is_noop(t *testing.T) {
	var m *Metrics
	m.IncPolls()
	m.IncTerminations(ReasonEOS)
	m.SetState(1)
	m.IncRequests()
}

func TestHandler_serves_registry(t *testing.T) {
	m := New()
	m.IncSessionsStarted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "orchestrator_sessions_started_total 1") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body.String())
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/status", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(m.requestsTotal); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.errorsTotal); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}
