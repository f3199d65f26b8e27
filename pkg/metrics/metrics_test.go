package metrics

import (
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.BatchesTotal == nil {
		t.Error("BatchesTotal not initialized")
	}
	if r.BatchDuration == nil {
		t.Error("BatchDuration not initialized")
	}
	if r.ChunksTotal == nil {
		t.Error("ChunksTotal not initialized")
	}
	if r.DedupDiscardsTotal == nil {
		t.Error("DedupDiscardsTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func gather(t *testing.T, r *Registry) []*dto.MetricFamily {
	t.Helper()
	families, err := r.GetPrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	return families
}

func findFamily(families []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestRecordBatch(t *testing.T) {
	r := NewRegistry()

	r.RecordBatch(3, "ok", 50*time.Millisecond)
	r.RecordBatch(5, "ok", 10*time.Millisecond)
	r.RecordBatch(1, "transport_error", time.Second)

	families := gather(t, r)

	total := findFamily(families, "graphclient_batches_total")
	if total == nil {
		t.Fatal("graphclient_batches_total not found")
	}

	var okCount float64
	for _, m := range total.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "status" && l.GetValue() == "ok" {
				okCount = m.GetCounter().GetValue()
			}
		}
	}
	if okCount != 2 {
		t.Errorf("ok batches = %v, want 2", okCount)
	}

	jobs := findFamily(families, "graphclient_batch_jobs")
	if jobs == nil {
		t.Fatal("graphclient_batch_jobs not found")
	}
	if got := jobs.GetMetric()[0].GetHistogram().GetSampleCount(); got != 3 {
		t.Errorf("job histogram samples = %d, want 3", got)
	}
}

func TestRecordJobFailureClasses(t *testing.T) {
	r := NewRegistry()

	r.RecordJobFailure(404)
	r.RecordJobFailure(409)
	r.RecordJobFailure(500)
	r.RecordJobFailure(0)

	families := gather(t, r)
	fam := findFamily(families, "graphclient_batch_job_failures_total")
	if fam == nil {
		t.Fatal("failure counter not found")
	}

	classes := map[string]float64{}
	for _, m := range fam.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "status_class" {
				classes[l.GetValue()] = m.GetCounter().GetValue()
			}
		}
	}
	if classes["4xx"] != 2 {
		t.Errorf("4xx = %v, want 2", classes["4xx"])
	}
	if classes["5xx"] != 1 {
		t.Errorf("5xx = %v, want 1", classes["5xx"])
	}
	if classes["unknown"] != 1 {
		t.Errorf("unknown = %v, want 1", classes["unknown"])
	}
}

func TestRecordChunk(t *testing.T) {
	r := NewRegistry()

	r.RecordChunk("create_nodes", "ok", 1000, 20*time.Millisecond)
	r.RecordChunk("create_nodes", "ok", 500, 5*time.Millisecond)

	families := gather(t, r)
	fam := findFamily(families, "graphclient_bulk_chunks_total")
	if fam == nil {
		t.Fatal("chunk counter not found")
	}
	if got := fam.GetMetric()[0].GetCounter().GetValue(); got != 2 {
		t.Errorf("chunks = %v, want 2", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
		{-1, "unknown"},
		{999, "unknown"},
	}
	for _, tt := range tests {
		if got := statusClass(tt.code); got != tt.want {
			t.Errorf("statusClass(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestMetricNamesHavePrefix(t *testing.T) {
	r := NewRegistry()
	r.RecordBatch(1, "ok", time.Millisecond)

	for _, f := range gather(t, r) {
		if !strings.HasPrefix(f.GetName(), "graphclient_") {
			t.Errorf("metric %q missing graphclient_ prefix", f.GetName())
		}
	}
}
