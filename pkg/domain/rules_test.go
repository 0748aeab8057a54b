package domain

import (
	"context"
	"errors"
	"testing"
)

type staticRule struct {
	name   string
	result Result
	err    error
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return r.result, r.err
}

func TestEngineAggregatesResults(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "a", result: Result{Violations: []Violation{{Rule: "a", Severity: SeverityWarn}}}})
	engine.Register(staticRule{name: "b", result: Result{Violations: []Violation{{Rule: "b", Severity: SeverityLog}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected aggregated violations, got %+v", res.Violations)
	}
	if res.HasBlocking() {
		t.Fatal("warn and log severities must not block")
	}
}

func TestEngineStopsOnRuleError(t *testing.T) {
	engine := NewRulesEngine()
	want := errors.New("boom")
	engine.Register(staticRule{name: "a", err: want})
	engine.Register(staticRule{name: "b", result: Result{Violations: []Violation{{Rule: "b"}}}})

	res, err := engine.Evaluate(context.Background(), nil, nil)
	if !errors.Is(err, want) {
		t.Fatalf("expected rule error, got %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("failed evaluation must return an empty result, got %+v", res)
	}
}

func TestHasBlocking(t *testing.T) {
	res := Result{Violations: []Violation{{Severity: SeverityWarn}}}
	if res.HasBlocking() {
		t.Fatal("warn alone must not block")
	}
	res.Merge(Result{Violations: []Violation{{Severity: SeverityBlock}}})
	if !res.HasBlocking() {
		t.Fatal("expected blocking after merge")
	}
	if len(res.Violations) != 2 {
		t.Fatalf("merge must append, got %+v", res.Violations)
	}
}

func TestGuestSession(t *testing.T) {
	if got := GuestSession(); got.Role != RoleGuest || got.UserName != "" {
		t.Fatalf("unexpected guest session %+v", got)
	}
}
