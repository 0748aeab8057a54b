package core

import (
	"context"
	"fmt"

	"scolarcore/pkg/domain"
)

// NewAttendanceUniquenessRule returns the default in-transaction rule blocking
// duplicate register entries for one student on one calendar day.
func NewAttendanceUniquenessRule() domain.Rule {
	return attendanceUniquenessRule{}
}

type attendanceUniquenessRule struct{}

func (attendanceUniquenessRule) Name() string { return "attendance_uniqueness" }

func (attendanceUniquenessRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	type key struct {
		student string
		date    string
	}
	seen := make(map[key]string)

	res := domain.Result{}
	for _, record := range view.ListAttendance() {
		k := key{student: record.StudentID, date: record.Date}
		if firstID, dup := seen[k]; dup {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "attendance_uniqueness",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("duplicate attendance for student %s on %s (records %s, %s)", record.StudentID, record.Date, firstID, record.ID),
				Entity:   domain.EntityAttendance,
				EntityID: record.ID,
			})
			continue
		}
		seen[k] = record.ID
	}
	return res, nil
}
