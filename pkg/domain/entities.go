// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by scolarcore.
package domain

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySchool identifies a school record.
	EntitySchool EntityType = "school"
	// EntityStudent identifies a student record.
	EntityStudent EntityType = "student"
	// EntityStaff identifies a staff account record.
	EntityStaff EntityType = "staff"
	// EntityParentAccount identifies a parent account record.
	EntityParentAccount EntityType = "parent_account"
	// EntityAttendance identifies a daily attendance record.
	EntityAttendance EntityType = "attendance"
)

// AttendanceStatus enumerates the two presence states of a register entry.
type AttendanceStatus string

// Presence states recorded in the weekly register.
const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
)

// StatusLevel grades grooming (aspect) and behavior (conduite) observations.
// The values are the original product's French labels and are part of the
// snapshot wire format.
type StatusLevel string

// Canonical grooming/behavior levels.
const (
	LevelBien    StatusLevel = "bien"
	LevelMoyen   StatusLevel = "moyen"
	LevelMauvais StatusLevel = "mauvais"
)

// LetterGrade is the A-D daily letter grade attached to a register entry.
type LetterGrade string

// Canonical letter grades.
const (
	GradeA LetterGrade = "A"
	GradeB LetterGrade = "B"
	GradeC LetterGrade = "C"
	GradeD LetterGrade = "D"
)

// Role identifies the authenticated actor class held in a session.
type Role string

// Session roles. GUEST is the unauthenticated default.
const (
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleParent Role = "PARENT"
	RoleGuest  Role = "GUEST"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn flags a suspect state but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// School is a registered school. JSON tags carry the original snapshot wire
// shape (camelCase) so exports from the legacy application import cleanly.
type School struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PhotoURL   string `json:"photoUrl"`
	Location   string `json:"location"`
	AdminEmail string `json:"adminEmail"`
}

// Student belongs to exactly one school and at most one parent account. An
// empty or unresolved ParentID means "no parent assigned"; it is never an
// error.
type Student struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SchoolID string `json:"schoolId"`
	Grade    string `json:"grade"`
	ParentID string `json:"parentId"`
	PhotoURL string `json:"photoUrl"`
}

// Staff is a school-scoped login account. The password is stored and compared
// in plain text, mirroring the source system; the comparison is isolated
// behind the session resolver so hardening stays a localized change.
type Staff struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Password string `json:"password"`
	SchoolID string `json:"schoolId"`
}

// ParentAccount is a device-wide parent login referenced by zero or more
// students.
type ParentAccount struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// Attendance is one register entry for one student on one calendar day. Date
// is an ISO day string (YYYY-MM-DD). At most one record may exist per
// (StudentID, Date) pair; marking again replaces the prior record.
type Attendance struct {
	ID        string           `json:"id"`
	StudentID string           `json:"studentId"`
	Date      string           `json:"date"`
	Status    AttendanceStatus `json:"status"`
	Aspect    StatusLevel      `json:"aspect,omitempty"`
	Conduite  StatusLevel      `json:"conduite,omitempty"`
	ABCD      LetterGrade      `json:"abcd,omitempty"`
}

// Session describes the currently authenticated actor. SchoolID scopes STAFF
// sessions, ParentID scopes PARENT sessions.
type Session struct {
	Role     Role   `json:"role"`
	UserName string `json:"userName,omitempty"`
	SchoolID string `json:"schoolId,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

// GuestSession returns the unauthenticated default session.
func GuestSession() Session { return Session{Role: RoleGuest} }

// Snapshot is the serialisable representation of the full store state. Its
// JSON form is the portable snapshot document exchanged between devices: five
// named collections, each an array of records, no version tag, no checksum.
type Snapshot struct {
	Schools        []School        `json:"schools"`
	Students       []Student       `json:"students"`
	Staff          []Staff         `json:"staff"`
	ParentAccounts []ParentAccount `json:"parentAccounts"`
	Attendance     []Attendance    `json:"attendance"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutations captured for rule evaluation and
// audit.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
