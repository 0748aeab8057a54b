package core

import (
	"context"
	"fmt"

	"scolarcore/pkg/domain"
)

// NewDanglingParentLinkRule returns a log-only rule surfacing students whose
// parentId resolves to no account. Dangling links are legal (they read as "no
// parent assigned") but worth noticing after imports.
func NewDanglingParentLinkRule() domain.Rule {
	return danglingParentLinkRule{}
}

type danglingParentLinkRule struct{}

func (danglingParentLinkRule) Name() string { return "dangling_parent_link" }

func (danglingParentLinkRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, student := range view.ListStudents() {
		if student.ParentID == "" {
			continue
		}
		if _, ok := view.FindParentAccount(student.ParentID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "dangling_parent_link",
				Severity: domain.SeverityLog,
				Message:  fmt.Sprintf("student %s links to missing parent account %s", student.ID, student.ParentID),
				Entity:   domain.EntityStudent,
				EntityID: student.ID,
			})
		}
	}
	return res, nil
}
