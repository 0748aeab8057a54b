package core

import (
	"context"
	"fmt"

	"scolarcore/internal/insights"
)

// Service exposes higher-level transactional operations over the school
// dataset. All mutations run through the store's transaction boundary so the
// built-in rules see every change.
type Service struct {
	store    PersistentStore
	audit    AuditRecorder
	metrics  MetricsRecorder
	tracer   Tracer
	insights insights.Generator
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(newMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// WithInsightGenerator wires an encouragement message generator into the
// service. Without one, AttendanceInsight returns the static fallback.
func WithInsightGenerator(gen insights.Generator) ServiceOption {
	return func(s *Service) { s.insights = gen }
}

// CreateSchool persists a new school.
func (s *Service) CreateSchool(ctx context.Context, school School) (School, Result, error) {
	var created School
	res, err := s.instrument(ctx, "create_school", EntitySchool, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateSchool(school)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// DeleteSchool removes a school together with its students, its staff, and
// the attendance of those students.
func (s *Service) DeleteSchool(ctx context.Context, id string) (Result, error) {
	return s.instrument(ctx, "delete_school", EntitySchool, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteSchool(id)
		})
		return id, res, err
	})
}

// CreateStudent persists a new student.
func (s *Service) CreateStudent(ctx context.Context, student Student) (Student, Result, error) {
	var created Student
	res, err := s.instrument(ctx, "create_student", EntityStudent, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateStudent(student)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// UpdateStudent replaces the stored student whose ID matches. An unknown ID
// is a silent no-op.
func (s *Service) UpdateStudent(ctx context.Context, student Student) (Student, Result, error) {
	var updated Student
	res, err := s.instrument(ctx, "update_student", EntityStudent, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			updated, err = tx.UpdateStudent(student)
			return err
		})
		return student.ID, res, err
	})
	return updated, res, err
}

// DeleteStudent removes a student and their attendance records.
func (s *Service) DeleteStudent(ctx context.Context, id string) (Result, error) {
	return s.instrument(ctx, "delete_student", EntityStudent, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteStudent(id)
		})
		return id, res, err
	})
}

// CreateStaff persists a new staff account.
func (s *Service) CreateStaff(ctx context.Context, staff Staff) (Staff, Result, error) {
	var created Staff
	res, err := s.instrument(ctx, "create_staff", EntityStaff, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateStaff(staff)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// DeleteStaff removes a staff account.
func (s *Service) DeleteStaff(ctx context.Context, id string) (Result, error) {
	return s.instrument(ctx, "delete_staff", EntityStaff, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteStaff(id)
		})
		return id, res, err
	})
}

// CreateParentAccount persists a new parent account.
func (s *Service) CreateParentAccount(ctx context.Context, account ParentAccount) (ParentAccount, Result, error) {
	var created ParentAccount
	res, err := s.instrument(ctx, "create_parent_account", EntityParentAccount, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateParentAccount(account)
			return err
		})
		return created.ID, res, err
	})
	return created, res, err
}

// DeleteParentAccount removes only the account; students keep their parentId.
func (s *Service) DeleteParentAccount(ctx context.Context, id string) (Result, error) {
	return s.instrument(ctx, "delete_parent_account", EntityParentAccount, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			return tx.DeleteParentAccount(id)
		})
		return id, res, err
	})
}

// MarkAttendance upserts the register entry for (StudentID, Date). Marking a
// pair again replaces the prior entry under its original ID.
func (s *Service) MarkAttendance(ctx context.Context, record Attendance) (Attendance, Result, error) {
	var marked Attendance
	res, err := s.instrument(ctx, "mark_attendance", EntityAttendance, func(ctx context.Context) (string, Result, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			marked, err = tx.MarkAttendance(record)
			return err
		})
		return marked.ID, res, err
	})
	return marked, res, err
}

// ListSchools returns all schools ordered by ID.
func (s *Service) ListSchools() []School { return s.store.ListSchools() }

// ListStudents returns all students ordered by ID.
func (s *Service) ListStudents() []Student { return s.store.ListStudents() }

// ListStaff returns all staff accounts ordered by ID.
func (s *Service) ListStaff() []Staff { return s.store.ListStaff() }

// ListParentAccounts returns all parent accounts ordered by ID.
func (s *Service) ListParentAccounts() []ParentAccount { return s.store.ListParentAccounts() }

// ListAttendance returns all register entries ordered by ID.
func (s *Service) ListAttendance() []Attendance { return s.store.ListAttendance() }

// GetSchool looks up one school.
func (s *Service) GetSchool(id string) (School, bool) { return s.store.GetSchool(id) }

// GetStudent looks up one student.
func (s *Service) GetStudent(id string) (Student, bool) { return s.store.GetStudent(id) }

// StudentsBySchool returns the students enrolled in one school, ordered by ID.
func (s *Service) StudentsBySchool(schoolID string) []Student {
	var out []Student
	for _, student := range s.store.ListStudents() {
		if student.SchoolID == schoolID {
			out = append(out, student)
		}
	}
	return out
}

// StudentsByParent returns the students linked to one parent account, ordered
// by ID.
func (s *Service) StudentsByParent(parentID string) []Student {
	var out []Student
	for _, student := range s.store.ListStudents() {
		if student.ParentID == parentID {
			out = append(out, student)
		}
	}
	return out
}

// ErrNotFound is returned when reference validation fails within transactional
// helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
