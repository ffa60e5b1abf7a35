package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	r := New()
	c := r.Counter("indexed_total", "Documents indexed")
	if c.Value() != 0 {
		t.Fatalf("expected 0, got %d", c.Value())
	}
	c.Inc()
	c.Inc()
	c.Add(5)
	if c.Value() != 7 {
		t.Fatalf("expected 7, got %d", c.Value())
	}
	// Same name returns the same counter.
	if r.Counter("indexed_total", "") != c {
		t.Fatal("expected same counter instance")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("documents", "Documents in the dataset")
	g.Set(42)
	if g.Value() != 42 {
		t.Fatalf("expected 42, got %d", g.Value())
	}
	g.Inc()
	g.Inc()
	g.Dec()
	if g.Value() != 43 {
		t.Fatalf("expected 43, got %d", g.Value())
	}
}

func TestHistogram(t *testing.T) {
	r := New()
	h := r.Histogram("embed_duration_seconds", "Embedding latency", []float64{0.1, 0.5, 1.0})
	h.Observe(0.05)
	h.Observe(0.3)
	h.Observe(0.8)
	h.Observe(2.0) // above all buckets, only counted in +Inf

	buckets, counts, sum, count := h.snapshot()
	if count != 4 {
		t.Fatalf("expected count 4, got %d", count)
	}
	if len(buckets) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(buckets))
	}
	for i, want := range []uint64{1, 1, 1} {
		if counts[i] != want {
			t.Fatalf("bucket %g: expected %d, got %d", buckets[i], want, counts[i])
		}
	}
	if want := 0.05 + 0.3 + 0.8 + 2.0; sum != want {
		t.Fatalf("expected sum %f, got %f", want, sum)
	}
}

func TestHistogramSince(t *testing.T) {
	r := New()
	h := r.Histogram("latency", "", nil)
	h.Since(time.Now().Add(-100 * time.Millisecond))
	_, _, _, count := h.snapshot()
	if count != 1 {
		t.Fatal("expected 1 observation")
	}
}

func TestWithLabels(t *testing.T) {
	got := WithLabels("bus_messages_total", "outcome", "indexed", "subject", "catalog.records")
	want := `bus_messages_total{outcome="indexed",subject="catalog.records"}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if WithLabels("bare") != "bare" {
		t.Fatal("no labels should return the name unchanged")
	}
	if WithLabels("odd", "k") != "odd" {
		t.Fatal("odd label pairs should return the name unchanged")
	}
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"runs_total", "runs_total"},
		{`runs_total{result="ok"}`, "runs_total"},
		{`runs{a="1",b="2"}`, "runs"},
	}
	for _, tt := range tests {
		if got := baseName(tt.in); got != tt.want {
			t.Errorf("baseName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	r := New()
	r.Counter("records_indexed_total", "Records written to the store").Add(10)
	r.Counter(WithLabels("reconcile_runs_total", "result", "ok"), "Reconcile runs").Add(7)
	r.Counter(WithLabels("reconcile_runs_total", "result", "error"), "").Add(3)
	r.Gauge("dataset_documents", "Documents in the dataset").Set(5)
	h := r.Histogram("embed_duration_seconds", "Embedding latency", []float64{0.1, 0.5, 1.0})
	h.Observe(0.05)
	h.Observe(0.3)

	out := r.Render()

	for _, want := range []string{
		"# TYPE records_indexed_total counter",
		"# TYPE reconcile_runs_total counter",
		"# TYPE dataset_documents gauge",
		"# TYPE embed_duration_seconds histogram",
		"# HELP records_indexed_total Records written to the store",
		"records_indexed_total 10",
		`reconcile_runs_total{result="error"} 3`,
		`reconcile_runs_total{result="ok"} 7`,
		"dataset_documents 5",
		`embed_duration_seconds_bucket{le="0.1"} 1`,
		`embed_duration_seconds_bucket{le="0.5"} 2`,
		`embed_duration_seconds_bucket{le="+Inf"} 2`,
		"embed_duration_seconds_sum 0.35",
		"embed_duration_seconds_count 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in rendered output:\n%s", want, out)
		}
	}
}

func TestRenderLabeledHistogram(t *testing.T) {
	r := New()
	h := r.Histogram(WithLabels("op_duration_seconds", "op", "embed"), "", []float64{1})
	h.Observe(0.5)

	out := r.Render()
	for _, want := range []string{
		`op_duration_seconds_bucket{le="1",op="embed"} 1`,
		`op_duration_seconds_bucket{le="+Inf",op="embed"} 1`,
		`op_duration_seconds_sum{op="embed"} 0.5`,
		`op_duration_seconds_count{op="embed"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in rendered output:\n%s", want, out)
		}
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("probe_total", "probes").Inc()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "probe_total 1") {
		t.Error("missing metric in handler output")
	}
}
