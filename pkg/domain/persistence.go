package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Cascade semantics live here: deleting
// a school removes its students, its staff, and the attendance of those
// students in the same commit; deleting a student removes its attendance.
type Transaction interface {
	Snapshot() TransactionView
	CreateSchool(School) (School, error)
	DeleteSchool(id string) error
	CreateStudent(Student) (Student, error)
	// UpdateStudent replaces the stored student whose ID matches. An unknown
	// ID is a no-op: nothing is inserted and no error is returned.
	UpdateStudent(Student) (Student, error)
	DeleteStudent(id string) error
	CreateStaff(Staff) (Staff, error)
	DeleteStaff(id string) error
	CreateParentAccount(ParentAccount) (ParentAccount, error)
	// DeleteParentAccount removes only the account. Students keep their
	// parentId; a dangling reference reads as "no parent assigned".
	DeleteParentAccount(id string) error
	// MarkAttendance upserts by (StudentID, Date). When a record for the pair
	// exists its ID is reused, so repeated toggles on one day never
	// accumulate distinct IDs.
	MarkAttendance(Attendance) (Attendance, error)
	FindSchool(id string) (School, bool)
	FindStudent(id string) (Student, bool)
}

// TransactionView provides read-only access to a consistent state snapshot.
type TransactionView interface {
	RuleView
	FindStaff(id string) (Staff, bool)
	FindAttendance(studentID, date string) (Attendance, bool)
}

// PersistentStore is the abstraction over durable backends. Every mutation
// runs through RunInTransaction; durable drivers re-serialize the full state
// after each successful commit.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	ListSchools() []School
	ListStudents() []Student
	ListStaff() []Staff
	ListParentAccounts() []ParentAccount
	ListAttendance() []Attendance
	GetSchool(id string) (School, bool)
	GetStudent(id string) (Student, bool)
	// ExportState and ImportState move the whole dataset at once. ImportState
	// bypasses rule evaluation: imported documents are applied verbatim, as
	// the source system does.
	ExportState() Snapshot
	ImportState(Snapshot)
	// Session is the durable single-slot session descriptor. SetSession
	// persists with the same durability as the collections.
	Session() Session
	SetSession(Session)
}
