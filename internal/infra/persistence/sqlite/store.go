// Package sqlite provides the default durable store: the in-memory
// transactional store plus a SQLite file that receives a full JSON snapshot
// of every collection after each successful commit.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"scolarcore/internal/infra/persistence/memory"
	"scolarcore/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

// Store persists the in-memory state to a single SQLite table as JSON blobs.
// Every mutation rewrites the affected buckets in full; dataset sizes are
// single-school scale, so the O(total records) write is acceptable.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = "scolarcore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	ms := memory.NewStore(engine)
	s := &Store{Store: ms, db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Bucket names match the legacy application's storage keys: five collections
// plus the session slot.
const (
	bucketSchools    = "schools"
	bucketStudents   = "students"
	bucketStaff      = "staff"
	bucketParents    = "parentAccounts"
	bucketAttendance = "attendance"
	bucketSession    = "session"
)

var buckets = []string{bucketSchools, bucketStudents, bucketStaff, bucketParents, bucketAttendance, bucketSession}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := map[string][]byte{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if len(payloads) == 0 {
		return nil
	}
	snapshot := domain.Snapshot{}
	for bucket, payload := range payloads {
		switch bucket {
		case bucketSchools:
			if err := json.Unmarshal(payload, &snapshot.Schools); err != nil {
				return fmt.Errorf("decode schools: %w", err)
			}
		case bucketStudents:
			if err := json.Unmarshal(payload, &snapshot.Students); err != nil {
				return fmt.Errorf("decode students: %w", err)
			}
		case bucketStaff:
			if err := json.Unmarshal(payload, &snapshot.Staff); err != nil {
				return fmt.Errorf("decode staff: %w", err)
			}
		case bucketParents:
			if err := json.Unmarshal(payload, &snapshot.ParentAccounts); err != nil {
				return fmt.Errorf("decode parent accounts: %w", err)
			}
		case bucketAttendance:
			if err := json.Unmarshal(payload, &snapshot.Attendance); err != nil {
				return fmt.Errorf("decode attendance: %w", err)
			}
		case bucketSession:
			var session domain.Session
			if err := json.Unmarshal(payload, &session); err != nil {
				return fmt.Errorf("decode session: %w", err)
			}
			s.Store.SetSession(session)
		}
	}
	s.Store.ImportState(snapshot)
	return nil
}

func (s *Store) persist() (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.Store.ExportState()
	session := s.Store.Session()
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range buckets {
		var data []byte
		switch bucket {
		case bucketSchools:
			data, err = json.Marshal(snapshot.Schools)
		case bucketStudents:
			data, err = json.Marshal(snapshot.Students)
		case bucketStaff:
			data, err = json.Marshal(snapshot.Staff)
		case bucketParents:
			data, err = json.Marshal(snapshot.ParentAccounts)
		case bucketAttendance:
			data, err = json.Marshal(snapshot.Attendance)
		case bucketSession:
			data, err = json.Marshal(session)
		}
		if err != nil {
			retErr = err
			return retErr
		}
		if _, err = tx.Exec(`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, data); err != nil {
			retErr = fmt.Errorf("upsert %s: %w", bucket, err)
			return retErr
		}
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	return nil
}

// RunInTransaction applies fn within a transaction, then snapshots state to
// SQLite if successful. A persist failure surfaces as the returned error; the
// committed in-memory state stands and the next successful commit rewrites
// the full snapshot.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// ImportState replaces the dataset wholesale and snapshots it immediately.
func (s *Store) ImportState(snapshot domain.Snapshot) {
	s.Store.ImportState(snapshot)
	_ = s.persist()
}

// SetSession overwrites the session slot and snapshots it. Session-slot write
// failures are silent; the source system does not model them either.
func (s *Store) SetSession(session domain.Session) {
	s.Store.SetSession(session)
	_ = s.persist()
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }
