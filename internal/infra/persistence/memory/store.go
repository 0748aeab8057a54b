// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments. Durable drivers embed it
// and snapshot its state after every committed transaction.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"scolarcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain
// persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// School aliases domain.School for in-memory persistence operations.
	School = domain.School
	// Student aliases domain.Student.
	Student = domain.Student
	// Staff aliases domain.Staff.
	Staff = domain.Staff
	// ParentAccount aliases domain.ParentAccount.
	ParentAccount = domain.ParentAccount
	// Attendance aliases domain.Attendance.
	Attendance = domain.Attendance
	// Session aliases domain.Session.
	Session = domain.Session
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
	// Change aliases domain.Change.
	Change = domain.Change
	// Result aliases domain.Result.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView.
	TransactionView = domain.TransactionView
)

// ID prefixes keep generated identifiers recognizable per entity type.
// Imported records keep whatever IDs their source assigned.
const (
	schoolIDPrefix     = "sch"
	studentIDPrefix    = "std"
	staffIDPrefix      = "stf"
	parentIDPrefix     = "par"
	attendanceIDPrefix = "att"
)

type state struct {
	schools  map[string]School
	students map[string]Student
	staff    map[string]Staff
	parents  map[string]ParentAccount
	// attendance is keyed by record ID; the (StudentID, Date) uniqueness
	// invariant is upheld by MarkAttendance and guarded by the rules engine.
	attendance map[string]Attendance
}

func newState() state {
	return state{
		schools:    map[string]School{},
		students:   map[string]Student{},
		staff:      map[string]Staff{},
		parents:    map[string]ParentAccount{},
		attendance: map[string]Attendance{},
	}
}

func (s state) clone() state {
	cp := newState()
	for k, v := range s.schools {
		cp.schools[k] = v
	}
	for k, v := range s.students {
		cp.students[k] = v
	}
	for k, v := range s.staff {
		cp.staff[k] = v
	}
	for k, v := range s.parents {
		cp.parents[k] = v
	}
	for k, v := range s.attendance {
		cp.attendance[k] = v
	}
	return cp
}

func snapshotFromState(s state) Snapshot {
	snap := Snapshot{
		Schools:        make([]School, 0, len(s.schools)),
		Students:       make([]Student, 0, len(s.students)),
		Staff:          make([]Staff, 0, len(s.staff)),
		ParentAccounts: make([]ParentAccount, 0, len(s.parents)),
		Attendance:     make([]Attendance, 0, len(s.attendance)),
	}
	for _, v := range s.schools {
		snap.Schools = append(snap.Schools, v)
	}
	for _, v := range s.students {
		snap.Students = append(snap.Students, v)
	}
	for _, v := range s.staff {
		snap.Staff = append(snap.Staff, v)
	}
	for _, v := range s.parents {
		snap.ParentAccounts = append(snap.ParentAccounts, v)
	}
	for _, v := range s.attendance {
		snap.Attendance = append(snap.Attendance, v)
	}
	sort.Slice(snap.Schools, func(i, j int) bool { return snap.Schools[i].ID < snap.Schools[j].ID })
	sort.Slice(snap.Students, func(i, j int) bool { return snap.Students[i].ID < snap.Students[j].ID })
	sort.Slice(snap.Staff, func(i, j int) bool { return snap.Staff[i].ID < snap.Staff[j].ID })
	sort.Slice(snap.ParentAccounts, func(i, j int) bool { return snap.ParentAccounts[i].ID < snap.ParentAccounts[j].ID })
	sort.Slice(snap.Attendance, func(i, j int) bool { return snap.Attendance[i].ID < snap.Attendance[j].ID })
	return snap
}

func stateFromSnapshot(snap Snapshot) state {
	st := newState()
	for _, v := range snap.Schools {
		st.schools[v.ID] = v
	}
	for _, v := range snap.Students {
		st.students[v.ID] = v
	}
	for _, v := range snap.Staff {
		st.staff[v.ID] = v
	}
	for _, v := range snap.ParentAccounts {
		st.parents[v.ID] = v
	}
	for _, v := range snap.Attendance {
		st.attendance[v.ID] = v
	}
	return st
}

// Store is the in-memory transactional record store.
type Store struct {
	mu      sync.RWMutex
	state   state
	session Session
	engine  *RulesEngine
}

// NewStore constructs an empty store with the supplied rules engine. A nil
// engine means no commit-time rule evaluation.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{state: newState(), session: domain.GuestSession(), engine: engine}
}

func newID(prefix string) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return prefix + hex.EncodeToString(b[:])
}

// RulesEngine returns the engine evaluated at commit time.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// ExportState returns a deep copy of the full dataset.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the full dataset wholesale, bypassing rule evaluation.
func (s *Store) ImportState(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snap)
}

// Session returns the current session descriptor.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetSession overwrites the session slot.
func (s *Store) SetSession(session Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// RunInTransaction applies fn to a cloned state, evaluates the registered
// rules against the candidate state, and commits it atomically unless fn
// errors or a blocking violation is found.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}
	var result Result
	if s.engine != nil {
		view := newView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}
	s.state = tx.state
	return result, nil
}

// View runs fn against a consistent read-only snapshot of the state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newView(&snapshot))
}

// ListSchools returns all schools ordered by ID.
func (s *Store) ListSchools() []School {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state).Schools
}

// ListStudents returns all students ordered by ID.
func (s *Store) ListStudents() []Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state).Students
}

// ListStaff returns all staff accounts ordered by ID.
func (s *Store) ListStaff() []Staff {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state).Staff
}

// ListParentAccounts returns all parent accounts ordered by ID.
func (s *Store) ListParentAccounts() []ParentAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state).ParentAccounts
}

// ListAttendance returns all attendance records ordered by ID.
func (s *Store) ListAttendance() []Attendance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state).Attendance
}

// GetSchool looks up one school by ID.
func (s *Store) GetSchool(id string) (School, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sch, ok := s.state.schools[id]
	return sch, ok
}

// GetStudent looks up one student by ID.
func (s *Store) GetStudent(id string) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.students[id]
	return st, ok
}

type view struct{ state *state }

func newView(st *state) TransactionView { return view{state: st} }

func (v view) ListSchools() []School               { return snapshotFromState(*v.state).Schools }
func (v view) ListStudents() []Student             { return snapshotFromState(*v.state).Students }
func (v view) ListStaff() []Staff                  { return snapshotFromState(*v.state).Staff }
func (v view) ListParentAccounts() []ParentAccount { return snapshotFromState(*v.state).ParentAccounts }
func (v view) ListAttendance() []Attendance        { return snapshotFromState(*v.state).Attendance }

func (v view) FindSchool(id string) (School, bool) {
	sch, ok := v.state.schools[id]
	return sch, ok
}

func (v view) FindStudent(id string) (Student, bool) {
	st, ok := v.state.students[id]
	return st, ok
}

func (v view) FindStaff(id string) (Staff, bool) {
	st, ok := v.state.staff[id]
	return st, ok
}

func (v view) FindParentAccount(id string) (ParentAccount, bool) {
	p, ok := v.state.parents[id]
	return p, ok
}

func (v view) FindAttendance(studentID, date string) (Attendance, bool) {
	for _, a := range v.state.attendance {
		if a.StudentID == studentID && a.Date == date {
			return a, true
		}
	}
	return Attendance{}, false
}

type transaction struct {
	state   state
	changes []Change
}

func (tx *transaction) recordChange(change Change) { tx.changes = append(tx.changes, change) }

func (tx *transaction) Snapshot() TransactionView { return newView(&tx.state) }

func (tx *transaction) FindSchool(id string) (School, bool) {
	sch, ok := tx.state.schools[id]
	return sch, ok
}

func (tx *transaction) FindStudent(id string) (Student, bool) {
	st, ok := tx.state.students[id]
	return st, ok
}

func (tx *transaction) CreateSchool(school School) (School, error) {
	if school.ID == "" {
		school.ID = newID(schoolIDPrefix)
	}
	if _, exists := tx.state.schools[school.ID]; exists {
		return School{}, fmt.Errorf("school %q already exists", school.ID)
	}
	tx.state.schools[school.ID] = school
	tx.recordChange(Change{Entity: domain.EntitySchool, Action: domain.ActionCreate, After: school})
	return school, nil
}

// DeleteSchool removes the school together with its students, its staff, and
// the attendance of those students. The doomed student-ID set is collected
// before the student collection mutates. Unknown IDs are a no-op.
func (tx *transaction) DeleteSchool(id string) error {
	school, ok := tx.state.schools[id]
	if !ok {
		return nil
	}
	doomed := map[string]struct{}{}
	for sid, st := range tx.state.students {
		if st.SchoolID == id {
			doomed[sid] = struct{}{}
		}
	}
	delete(tx.state.schools, id)
	tx.recordChange(Change{Entity: domain.EntitySchool, Action: domain.ActionDelete, Before: school})
	for sid := range doomed {
		st := tx.state.students[sid]
		delete(tx.state.students, sid)
		tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionDelete, Before: st})
	}
	for fid, f := range tx.state.staff {
		if f.SchoolID == id {
			delete(tx.state.staff, fid)
			tx.recordChange(Change{Entity: domain.EntityStaff, Action: domain.ActionDelete, Before: f})
		}
	}
	for aid, a := range tx.state.attendance {
		if _, gone := doomed[a.StudentID]; gone {
			delete(tx.state.attendance, aid)
			tx.recordChange(Change{Entity: domain.EntityAttendance, Action: domain.ActionDelete, Before: a})
		}
	}
	return nil
}

func (tx *transaction) CreateStudent(student Student) (Student, error) {
	if student.ID == "" {
		student.ID = newID(studentIDPrefix)
	}
	if _, exists := tx.state.students[student.ID]; exists {
		return Student{}, fmt.Errorf("student %q already exists", student.ID)
	}
	tx.state.students[student.ID] = student
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionCreate, After: student})
	return student, nil
}

// UpdateStudent replaces the stored record matching the student's ID. An
// unknown ID neither inserts nor errors.
func (tx *transaction) UpdateStudent(student Student) (Student, error) {
	before, ok := tx.state.students[student.ID]
	if !ok {
		return student, nil
	}
	tx.state.students[student.ID] = student
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionUpdate, Before: before, After: student})
	return student, nil
}

// DeleteStudent removes the student and every attendance record referencing
// it. Unknown IDs are a no-op.
func (tx *transaction) DeleteStudent(id string) error {
	student, ok := tx.state.students[id]
	if !ok {
		return nil
	}
	delete(tx.state.students, id)
	tx.recordChange(Change{Entity: domain.EntityStudent, Action: domain.ActionDelete, Before: student})
	for aid, a := range tx.state.attendance {
		if a.StudentID == id {
			delete(tx.state.attendance, aid)
			tx.recordChange(Change{Entity: domain.EntityAttendance, Action: domain.ActionDelete, Before: a})
		}
	}
	return nil
}

func (tx *transaction) CreateStaff(staff Staff) (Staff, error) {
	if staff.ID == "" {
		staff.ID = newID(staffIDPrefix)
	}
	if _, exists := tx.state.staff[staff.ID]; exists {
		return Staff{}, fmt.Errorf("staff %q already exists", staff.ID)
	}
	tx.state.staff[staff.ID] = staff
	tx.recordChange(Change{Entity: domain.EntityStaff, Action: domain.ActionCreate, After: staff})
	return staff, nil
}

func (tx *transaction) DeleteStaff(id string) error {
	staff, ok := tx.state.staff[id]
	if !ok {
		return nil
	}
	delete(tx.state.staff, id)
	tx.recordChange(Change{Entity: domain.EntityStaff, Action: domain.ActionDelete, Before: staff})
	return nil
}

func (tx *transaction) CreateParentAccount(account ParentAccount) (ParentAccount, error) {
	if account.ID == "" {
		account.ID = newID(parentIDPrefix)
	}
	if _, exists := tx.state.parents[account.ID]; exists {
		return ParentAccount{}, fmt.Errorf("parent account %q already exists", account.ID)
	}
	tx.state.parents[account.ID] = account
	tx.recordChange(Change{Entity: domain.EntityParentAccount, Action: domain.ActionCreate, After: account})
	return account, nil
}

// DeleteParentAccount removes only the account; students referencing it keep
// their parentId and read as "no parent assigned".
func (tx *transaction) DeleteParentAccount(id string) error {
	account, ok := tx.state.parents[id]
	if !ok {
		return nil
	}
	delete(tx.state.parents, id)
	tx.recordChange(Change{Entity: domain.EntityParentAccount, Action: domain.ActionDelete, Before: account})
	return nil
}

// MarkAttendance upserts the register entry for (StudentID, Date). An
// existing entry's ID survives the replacement.
func (tx *transaction) MarkAttendance(record Attendance) (Attendance, error) {
	if record.StudentID == "" {
		return Attendance{}, fmt.Errorf("attendance requires a student id")
	}
	if record.Date == "" {
		return Attendance{}, fmt.Errorf("attendance requires a date")
	}
	for aid, a := range tx.state.attendance {
		if a.StudentID == record.StudentID && a.Date == record.Date {
			record.ID = a.ID
			delete(tx.state.attendance, aid)
			tx.state.attendance[record.ID] = record
			tx.recordChange(Change{Entity: domain.EntityAttendance, Action: domain.ActionUpdate, Before: a, After: record})
			return record, nil
		}
	}
	if record.ID == "" {
		record.ID = newID(attendanceIDPrefix)
	}
	tx.state.attendance[record.ID] = record
	tx.recordChange(Change{Entity: domain.EntityAttendance, Action: domain.ActionCreate, After: record})
	return record, nil
}
