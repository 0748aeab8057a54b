// Package insights generates short encouragement messages summarizing a
// student's attendance, for display on the parent portal. The production
// implementation calls a hosted language model; a static implementation
// serves offline deployments and tests.
package insights

import "context"

// Fallback is returned whenever a generator cannot produce a message. Parents
// always see some encouragement, never an error.
const Fallback = "Continuez vos efforts constants pour une excellente année scolaire !"

// Generator produces an encouragement message for a student who was present
// presentCount days out of totalDays.
type Generator interface {
	AttendanceInsight(ctx context.Context, studentName string, presentCount, totalDays int) (string, error)
}

// Static is a Generator that always returns the same message. The zero value
// returns Fallback.
type Static struct {
	Message string
}

var _ Generator = Static{}

// AttendanceInsight returns the configured message.
func (s Static) AttendanceInsight(context.Context, string, int, int) (string, error) {
	if s.Message == "" {
		return Fallback, nil
	}
	return s.Message, nil
}
