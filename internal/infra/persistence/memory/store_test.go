package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"scolarcore/internal/infra/persistence/memory"
	"scolarcore/pkg/domain"
)

func seedSchool(t *testing.T, store *memory.Store, name string) domain.School {
	t.Helper()
	var school domain.School
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		school, err = tx.CreateSchool(domain.School{Name: name})
		return err
	}); err != nil {
		t.Fatalf("create school: %v", err)
	}
	return school
}

func seedStudent(t *testing.T, store *memory.Store, schoolID, name string) domain.Student {
	t.Helper()
	var student domain.Student
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		student, err = tx.CreateStudent(domain.Student{Name: name, SchoolID: schoolID})
		return err
	}); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return student
}

func TestCreateAssignsPrefixedIDs(t *testing.T) {
	store := memory.NewStore(nil)
	school := seedSchool(t, store, "Lycée Central")
	if !strings.HasPrefix(school.ID, "sch") {
		t.Fatalf("expected school id prefix, got %q", school.ID)
	}
	student := seedStudent(t, store, school.ID, "Aminata")
	if !strings.HasPrefix(student.ID, "std") {
		t.Fatalf("expected student id prefix, got %q", student.ID)
	}
}

func TestDeleteSchoolCascades(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	schoolA := seedSchool(t, store, "École A")
	schoolB := seedSchool(t, store, "École B")
	studentA := seedStudent(t, store, schoolA.ID, "Aminata")
	studentB := seedStudent(t, store, schoolB.ID, "Binta")

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.CreateStaff(domain.Staff{UserName: "prof.a", Password: "pw", SchoolID: schoolA.ID}); err != nil {
			return err
		}
		if _, err := tx.CreateStaff(domain.Staff{UserName: "prof.b", Password: "pw", SchoolID: schoolB.ID}); err != nil {
			return err
		}
		if _, err := tx.MarkAttendance(domain.Attendance{StudentID: studentA.ID, Date: "2026-09-01", Status: domain.StatusPresent}); err != nil {
			return err
		}
		_, err := tx.MarkAttendance(domain.Attendance{StudentID: studentB.ID, Date: "2026-09-01", Status: domain.StatusPresent})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteSchool(schoolA.ID)
	}); err != nil {
		t.Fatalf("delete school: %v", err)
	}

	if _, ok := store.GetSchool(schoolA.ID); ok {
		t.Fatalf("school A should be gone")
	}
	if _, ok := store.GetStudent(studentA.ID); ok {
		t.Fatalf("student A should be gone with the school")
	}
	if _, ok := store.GetStudent(studentB.ID); !ok {
		t.Fatalf("student B must survive")
	}
	for _, staff := range store.ListStaff() {
		if staff.SchoolID == schoolA.ID {
			t.Fatalf("staff of school A should be gone: %+v", staff)
		}
	}
	for _, record := range store.ListAttendance() {
		if record.StudentID == studentA.ID {
			t.Fatalf("attendance of student A should be gone: %+v", record)
		}
	}
	if len(store.ListAttendance()) != 1 {
		t.Fatalf("expected 1 surviving attendance record, got %d", len(store.ListAttendance()))
	}
}

func TestDeleteStudentCascadesAttendance(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	school := seedSchool(t, store, "École")
	student := seedStudent(t, store, school.ID, "Aminata")

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.MarkAttendance(domain.Attendance{StudentID: student.ID, Date: "2026-09-01", Status: domain.StatusAbsent})
		return err
	}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteStudent(student.ID)
	}); err != nil {
		t.Fatalf("delete student: %v", err)
	}
	if len(store.ListAttendance()) != 0 {
		t.Fatalf("expected attendance cleared, got %d", len(store.ListAttendance()))
	}
}

func TestDeleteUnknownIDsAreNoOps(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteSchool("missing"); err != nil {
			return err
		}
		if err := tx.DeleteStudent("missing"); err != nil {
			return err
		}
		if err := tx.DeleteStaff("missing"); err != nil {
			return err
		}
		return tx.DeleteParentAccount("missing")
	}); err != nil {
		t.Fatalf("unknown deletes must not error: %v", err)
	}
}

func TestUpdateStudentUnknownIDIsNoOp(t *testing.T) {
	store := memory.NewStore(nil)
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateStudent(domain.Student{ID: "missing", Name: "Ghost"})
		return err
	}); err != nil {
		t.Fatalf("update unknown: %v", err)
	}
	if len(store.ListStudents()) != 0 {
		t.Fatalf("update of unknown id must not insert")
	}
}

func TestMarkAttendanceUpsertsByStudentAndDate(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	school := seedSchool(t, store, "École")
	student := seedStudent(t, store, school.ID, "Aminata")

	var first, second domain.Attendance
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		first, err = tx.MarkAttendance(domain.Attendance{StudentID: student.ID, Date: "2026-09-01", Status: domain.StatusPresent})
		return err
	}); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var err error
		second, err = tx.MarkAttendance(domain.Attendance{StudentID: student.ID, Date: "2026-09-01", Status: domain.StatusAbsent})
		return err
	}); err != nil {
		t.Fatalf("second mark: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert must reuse id: first=%s second=%s", first.ID, second.ID)
	}
	records := store.ListAttendance()
	if len(records) != 1 {
		t.Fatalf("expected single record, got %d", len(records))
	}
	if records[0].Status != domain.StatusAbsent {
		t.Fatalf("expected replacement status, got %s", records[0].Status)
	}
}

func TestMarkAttendanceRequiresStudentAndDate(t *testing.T) {
	store := memory.NewStore(nil)
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.MarkAttendance(domain.Attendance{Date: "2026-09-01"})
		return err
	}); err == nil {
		t.Fatalf("expected error for missing student id")
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.MarkAttendance(domain.Attendance{StudentID: "std1"})
		return err
	}); err == nil {
		t.Fatalf("expected error for missing date")
	}
}

type blockEverything struct{}

func (blockEverything) Name() string { return "block_everything" }

func (blockEverything) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	if len(changes) == 0 {
		return domain.Result{}, nil
	}
	return domain.Result{Violations: []domain.Violation{{
		Rule:     "block_everything",
		Severity: domain.SeverityBlock,
		Message:  "no mutations allowed",
	}}}, nil
}

func TestBlockingViolationRollsBack(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverything{})
	store := memory.NewStore(engine)

	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSchool(domain.School{Name: "École"})
		return err
	})
	if err == nil {
		t.Fatalf("expected rule violation error")
	}
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %T", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result, got %+v", res)
	}
	if len(store.ListSchools()) != 0 {
		t.Fatalf("blocked transaction must not commit")
	}
}

func TestFailedTransactionLeavesStateUntouched(t *testing.T) {
	store := memory.NewStore(nil)
	school := seedSchool(t, store, "École")

	boom := errors.New("boom")
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		if _, err := tx.CreateStudent(domain.Student{Name: "Aminata", SchoolID: school.ID}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if len(store.ListStudents()) != 0 {
		t.Fatalf("failed transaction must roll back")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	store := memory.NewStore(nil)
	school := seedSchool(t, store, "École")
	seedStudent(t, store, school.ID, "Aminata")

	snap := store.ExportState()
	other := memory.NewStore(nil)
	other.ImportState(snap)

	if len(other.ListSchools()) != 1 || len(other.ListStudents()) != 1 {
		t.Fatalf("unexpected imported counts: %d schools, %d students", len(other.ListSchools()), len(other.ListStudents()))
	}
	if other.ListSchools()[0].ID != school.ID {
		t.Fatalf("import must keep source ids")
	}
}

func TestImportStateBypassesRules(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockEverything{})
	store := memory.NewStore(engine)

	store.ImportState(domain.Snapshot{Schools: []domain.School{{ID: "sch1", Name: "École"}}})
	if len(store.ListSchools()) != 1 {
		t.Fatalf("import must apply without rule evaluation")
	}
}

func TestSessionSlot(t *testing.T) {
	store := memory.NewStore(nil)
	if got := store.Session(); got.Role != domain.RoleGuest {
		t.Fatalf("fresh store must hold guest session, got %+v", got)
	}
	store.SetSession(domain.Session{Role: domain.RoleStaff, UserName: "prof", SchoolID: "sch1"})
	if got := store.Session(); got.Role != domain.RoleStaff || got.SchoolID != "sch1" {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestViewSeesConsistentState(t *testing.T) {
	store := memory.NewStore(nil)
	school := seedSchool(t, store, "École")
	student := seedStudent(t, store, school.ID, "Aminata")

	if err := store.View(context.Background(), func(v domain.TransactionView) error {
		if _, ok := v.FindSchool(school.ID); !ok {
			t.Fatalf("school missing from view")
		}
		if _, ok := v.FindStudent(student.ID); !ok {
			t.Fatalf("student missing from view")
		}
		if _, ok := v.FindAttendance(student.ID, "2026-09-01"); ok {
			t.Fatalf("unexpected attendance in view")
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
