package core

import (
	"context"
	"fmt"

	"scolarcore/pkg/domain"
)

// NewReferentialIntegrityRule returns the default in-transaction rule blocking
// records that point at a missing owner: students without their school, staff
// without theirs, attendance without its student.
func NewReferentialIntegrityRule() domain.Rule {
	return referentialIntegrityRule{}
}

type referentialIntegrityRule struct{}

func (referentialIntegrityRule) Name() string { return "referential_integrity" }

func (referentialIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	schools := make(map[string]struct{})
	for _, school := range view.ListSchools() {
		schools[school.ID] = struct{}{}
	}
	students := make(map[string]struct{})

	res := domain.Result{}
	for _, student := range view.ListStudents() {
		students[student.ID] = struct{}{}
		if _, ok := schools[student.SchoolID]; !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "referential_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("student %s references missing school %s", student.ID, student.SchoolID),
				Entity:   domain.EntityStudent,
				EntityID: student.ID,
			})
		}
	}
	for _, staff := range view.ListStaff() {
		if _, ok := schools[staff.SchoolID]; !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "referential_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("staff %s references missing school %s", staff.ID, staff.SchoolID),
				Entity:   domain.EntityStaff,
				EntityID: staff.ID,
			})
		}
	}
	for _, record := range view.ListAttendance() {
		if _, ok := students[record.StudentID]; !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "referential_integrity",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("attendance %s references missing student %s", record.ID, record.StudentID),
				Entity:   domain.EntityAttendance,
				EntityID: record.ID,
			})
		}
	}
	return res, nil
}
