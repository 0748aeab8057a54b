package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"scolarcore/internal/infra/persistence/sqlite"
	"scolarcore/pkg/domain"
)

func TestSQLiteStoreSnapshotReload(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state.db")
	store, err := sqlite.NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	ctx := context.Background()

	var school domain.School
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var e error
		school, e = tx.CreateSchool(domain.School{Name: "Lycée Central"})
		if e != nil {
			return e
		}
		student, e := tx.CreateStudent(domain.Student{Name: "Aminata", SchoolID: school.ID})
		if e != nil {
			return e
		}
		_, e = tx.MarkAttendance(domain.Attendance{StudentID: student.ID, Date: "2026-09-01", Status: domain.StatusPresent})
		return e
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	store.SetSession(domain.Session{Role: domain.RoleAdmin, UserName: "Administrateur Xelar"})
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlite.NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen sqlite store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	schools := reopened.ListSchools()
	if len(schools) != 1 || schools[0].Name != "Lycée Central" {
		t.Fatalf("expected snapshot reload, got %+v", schools)
	}
	if len(reopened.ListStudents()) != 1 || len(reopened.ListAttendance()) != 1 {
		t.Fatalf("expected students and attendance to reload")
	}
	if got := reopened.Session(); got.Role != domain.RoleAdmin {
		t.Fatalf("expected persisted session, got %+v", got)
	}
}

func TestSQLiteImportStatePersists(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state.db")
	store, err := sqlite.NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	store.ImportState(domain.Snapshot{
		Schools:  []domain.School{{ID: "sch1", Name: "École"}},
		Students: []domain.Student{{ID: "std1", Name: "Aminata", SchoolID: "sch1"}},
	})
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlite.NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if len(reopened.ListSchools()) != 1 || len(reopened.ListStudents()) != 1 {
		t.Fatalf("imported state must persist across reopen")
	}
}

func TestSQLiteDeleteSchoolPersistsCascade(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "state.db")
	store, err := sqlite.NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	ctx := context.Background()
	store.ImportState(domain.Snapshot{
		Schools:    []domain.School{{ID: "sch1", Name: "École"}},
		Students:   []domain.Student{{ID: "std1", Name: "Aminata", SchoolID: "sch1"}},
		Staff:      []domain.Staff{{ID: "stf1", UserName: "prof", Password: "pw", SchoolID: "sch1"}},
		Attendance: []domain.Attendance{{ID: "att1", StudentID: "std1", Date: "2026-09-01", Status: domain.StatusPresent}},
	})
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteSchool("sch1")
	}); err != nil {
		t.Fatalf("delete school: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := sqlite.NewStore(dbPath, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if n := len(reopened.ListSchools()) + len(reopened.ListStudents()) + len(reopened.ListStaff()) + len(reopened.ListAttendance()); n != 0 {
		t.Fatalf("cascade must persist, %d records remain", n)
	}
}

func TestSQLiteDefaultPath(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "custom.db")
	store, err := sqlite.NewStore(dbPath, nil)
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Path() != dbPath {
		t.Fatalf("expected path %q, got %q", dbPath, store.Path())
	}
	if store.DB() == nil {
		t.Fatalf("expected database handle")
	}
}
