package core

import "scolarcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	AttendanceStatus   = domain.AttendanceStatus
	StatusLevel        = domain.StatusLevel
	LetterGrade        = domain.LetterGrade
	Role               = domain.Role
	Severity           = domain.Severity
	School             = domain.School
	Student            = domain.Student
	Staff              = domain.Staff
	ParentAccount      = domain.ParentAccount
	Attendance         = domain.Attendance
	Session            = domain.Session
	Snapshot           = domain.Snapshot
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	RuleView           = domain.RuleView
)

const (
	EntitySchool        = domain.EntitySchool
	EntityStudent       = domain.EntityStudent
	EntityStaff         = domain.EntityStaff
	EntityParentAccount = domain.EntityParentAccount
	EntityAttendance    = domain.EntityAttendance
)

const (
	StatusPresent = domain.StatusPresent
	StatusAbsent  = domain.StatusAbsent
)

const (
	LevelBien    = domain.LevelBien
	LevelMoyen   = domain.LevelMoyen
	LevelMauvais = domain.LevelMauvais
)

const (
	GradeA = domain.GradeA
	GradeB = domain.GradeB
	GradeC = domain.GradeC
	GradeD = domain.GradeD
)

const (
	RoleAdmin  = domain.RoleAdmin
	RoleStaff  = domain.RoleStaff
	RoleParent = domain.RoleParent
	RoleGuest  = domain.RoleGuest
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }

// GuestSession returns the unauthenticated default session.
func GuestSession() Session { return domain.GuestSession() }
