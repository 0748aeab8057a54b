package core

import (
	"context"
	"time"
)

// AuditStatus classifies the outcome of an audited operation.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry records a single service operation for compliance review.
type AuditEntry struct {
	Operation  string        `json:"operation"`
	Status     AuditStatus   `json:"status"`
	Entity     EntityType    `json:"entity,omitempty"`
	EntityID   string        `json:"entity_id,omitempty"`
	Error      string        `json:"error,omitempty"`
	Violations []Violation   `json:"violations,omitempty"`
	Duration   time.Duration `json:"duration"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// AuditRecorder receives audit entries for every service operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder receives timing observations for service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// TraceSpan terminates a single traced operation.
type TraceSpan interface {
	End(err error)
}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// ServiceOption configures optional service collaborators.
type ServiceOption func(*Service)

// WithAuditRecorder wires an audit sink into the service.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) { s.audit = recorder }
}

// WithMetricsRecorder wires a metrics sink into the service.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) { s.metrics = recorder }
}

// WithTracer wires a tracer into the service.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) { s.tracer = tracer }
}

// instrument wraps a service operation with tracing, metrics, and audit
// emission. fn returns the affected entity id (may be empty) alongside the
// rules result.
func (s *Service) instrument(ctx context.Context, operation string, entity EntityType, fn func(ctx context.Context) (string, Result, error)) (Result, error) {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	started := time.Now().UTC()
	entityID, res, err := fn(ctx)
	duration := time.Since(started)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, duration)
	}
	if s.audit != nil {
		entry := AuditEntry{
			Operation:  operation,
			Status:     AuditStatusSuccess,
			Entity:     entity,
			EntityID:   entityID,
			Violations: res.Violations,
			Duration:   duration,
			OccurredAt: started,
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
	return res, err
}
