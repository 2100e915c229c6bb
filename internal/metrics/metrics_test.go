package metrics_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/willemschots/signin/internal/auth"
	"github.com/willemschots/signin/internal/metrics"
)

func Test_Metrics_Record(t *testing.T) {
	m := metrics.New()

	m.Record(context.Background(), "admin@email.com", auth.OutcomeSuccess)
	m.Record(context.Background(), "admin@email.com", auth.OutcomeInvalidSecret)
	m.Record(context.Background(), "admin@email.com", auth.OutcomeInvalidSecret)

	body := scrape(t, m.Handler())

	wants := []string{
		`signin_login_outcomes_total{outcome="success"} 1`,
		`signin_login_outcomes_total{outcome="invalid_secret"} 2`,
		`signin_login_outcomes_total{outcome="account_suspended"} 0`,
		`signin_login_outcomes_total{outcome="invalid_token"} 0`,
		`signin_login_outcomes_total{outcome="identity_not_found"} 0`,
		`signin_login_outcomes_total{outcome="transient_failure"} 0`,
	}

	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output does not contain %q", want)
		}
	}

	if strings.Contains(body, "admin@email.com") {
		t.Errorf("metrics output contains identity:\n%s", body)
	}
}

func Test_Metrics_InstrumentRoute(t *testing.T) {
	m := metrics.New()

	h := m.InstrumentRoute("security_login", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))
	}

	got := histogramCount(t, m.Registry(), "signin_http_request_duration_seconds", map[string]string{
		"route": "security_login",
		"code":  "302",
	})
	if got != 3 {
		t.Errorf("got %d observations, want 3", got)
	}
}

func Test_Metrics_Lint(t *testing.T) {
	m := metrics.New()

	problems, err := testutil.GatherAndLint(m.Registry(), "signin_login_outcomes_total", "signin_http_request_duration_seconds")
	if err != nil {
		t.Fatalf("failed to lint metrics: %v", err)
	}

	for _, p := range problems {
		t.Errorf("%s: %s", p.Metric, p.Text)
	}
}

// histogramCount gathers reg and returns the sample count of the histogram
// with the given name and labels.
func histogramCount(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) uint64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, f := range families {
		if f.GetName() != name {
			continue
		}

		for _, m := range f.GetMetric() {
			if hasLabels(m, labels) {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}

	t.Fatalf("no %s histogram with labels %v", name, labels)
	return 0
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	if len(m.GetLabel()) != len(want) {
		return false
	}

	for _, l := range m.GetLabel() {
		if want[l.GetName()] != l.GetValue() {
			return false
		}
	}

	return true
}

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	b, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	return string(b)
}
