package core_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"scolarcore/internal/core"
)

type capturingAudit struct {
	mu      sync.Mutex
	entries []core.AuditEntry
}

func (c *capturingAudit) Record(_ context.Context, entry core.AuditEntry) {
	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()
}

func (c *capturingAudit) snapshot() []core.AuditEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.AuditEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

type capturingMetrics struct {
	mu           sync.Mutex
	observations []metricObservation
}

type metricObservation struct {
	operation string
	success   bool
	duration  time.Duration
}

func (c *capturingMetrics) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	c.mu.Lock()
	c.observations = append(c.observations, metricObservation{operation, success, duration})
	c.mu.Unlock()
}

func TestServiceEmitsAuditAndMetrics(t *testing.T) {
	audit := &capturingAudit{}
	metrics := &capturingMetrics{}
	svc := newTestService(t, core.WithAuditRecorder(audit), core.WithMetricsRecorder(metrics))
	ctx := context.Background()

	seedSchool(t, svc, "Les Palmiers")
	if _, _, err := svc.CreateStudent(ctx, core.Student{Name: "Awa", SchoolID: "sch-missing"}); err == nil {
		t.Fatal("expected blocked create")
	}

	entries := audit.snapshot()
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	first, second := entries[0], entries[1]
	if first.Operation != "create_school" || first.Status != core.AuditStatusSuccess {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if first.EntityID == "" || first.Entity != core.EntitySchool {
		t.Fatalf("expected entity metadata on success, got %+v", first)
	}
	if second.Operation != "create_student" || second.Status != core.AuditStatusError {
		t.Fatalf("unexpected second entry %+v", second)
	}
	if second.Error == "" || len(second.Violations) == 0 {
		t.Fatalf("expected failure detail on blocked entry, got %+v", second)
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if len(metrics.observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(metrics.observations))
	}
	if !metrics.observations[0].success || metrics.observations[1].success {
		t.Fatalf("unexpected success flags %+v", metrics.observations)
	}
	if metrics.observations[0].operation != "create_school" {
		t.Fatalf("unexpected operation %q", metrics.observations[0].operation)
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := core.NewJSONTracer(&buf)
	svc := newTestService(t, core.WithTracer(tracer))
	ctx := context.Background()

	seedSchool(t, svc, "Les Palmiers")
	if _, _, err := svc.CreateStudent(ctx, core.Student{Name: "Awa", SchoolID: "sch-missing"}); err == nil {
		t.Fatal("expected blocked create")
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Operation != "create_school" || entries[0].Status != "success" {
		t.Fatalf("unexpected first span %+v", entries[0])
	}
	if entries[1].Operation != "create_student" || entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("unexpected second span %+v", entries[1])
	}
	lines := strings.Count(strings.TrimSpace(buf.String()), "\n") + 1
	if lines != 2 {
		t.Fatalf("expected 2 encoded lines, got %d: %q", lines, buf.String())
	}
}

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := core.NewExpvarMetricsRecorder("")
	svc := newTestService(t, core.WithMetricsRecorder(rec))
	ctx := context.Background()

	seedSchool(t, svc, "Les Palmiers")
	if _, _, err := svc.CreateStudent(ctx, core.Student{Name: "Awa", SchoolID: "sch-missing"}); err == nil {
		t.Fatal("expected blocked create")
	}

	snap := rec.Snapshot()
	if snap.Results["create_school"]["success"] != 1 {
		t.Fatalf("unexpected success counts %+v", snap.Results)
	}
	if snap.Results["create_student"]["error"] != 1 {
		t.Fatalf("unexpected error counts %+v", snap.Results)
	}
	if _, ok := snap.DurationsMS["create_school"]; !ok {
		t.Fatalf("expected duration total, got %+v", snap.DurationsMS)
	}
	if rec.Name() == "" {
		t.Fatal("expected generated expvar name")
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := newTestService(t, core.WithMetricsRecorder(rec))
	ctx := context.Background()

	seedSchool(t, svc, "Les Palmiers")
	if _, _, err := svc.CreateStudent(ctx, core.Student{Name: "Awa", SchoolID: "sch-missing"}); err == nil {
		t.Fatal("expected blocked create")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := map[string]bool{}
	for _, fam := range families {
		found[fam.GetName()] = true
	}
	if !found["scolarcore_service_operation_duration_seconds"] {
		t.Fatalf("missing duration histogram, got %v", found)
	}
	if !found["scolarcore_service_operation_results_total"] {
		t.Fatalf("missing result counter, got %v", found)
	}

	// double registration on the same registry must fail
	if _, err := core.NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
