package core

import (
	"context"
	"fmt"

	"scolarcore/pkg/domain"
)

// NewStaffUsernameOverlapRule returns a warning rule for duplicate staff
// usernames within one school. Duplicates are tolerated and login resolves to
// the first match, but the shadowed account is effectively unreachable.
func NewStaffUsernameOverlapRule() domain.Rule {
	return staffUsernameOverlapRule{}
}

type staffUsernameOverlapRule struct{}

func (staffUsernameOverlapRule) Name() string { return "staff_username_overlap" }

func (staffUsernameOverlapRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	type key struct {
		school   string
		userName string
	}
	seen := make(map[key]string)

	res := domain.Result{}
	for _, staff := range view.ListStaff() {
		k := key{school: staff.SchoolID, userName: staff.UserName}
		if firstID, dup := seen[k]; dup {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "staff_username_overlap",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("staff %s shadows %s: username %q already taken in school %s", staff.ID, firstID, staff.UserName, staff.SchoolID),
				Entity:   domain.EntityStaff,
				EntityID: staff.ID,
			})
			continue
		}
		seen[k] = staff.ID
	}
	return res, nil
}
