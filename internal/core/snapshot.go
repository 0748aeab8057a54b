package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"scolarcore/internal/archive"
)

// SnapshotContentType is the media type used when publishing snapshot files.
const SnapshotContentType = "application/octet-stream"

// SnapshotFilename returns the conventional download name for a snapshot
// exported on the given day, e.g. ScolarSync_Data_2026-09-01.scsync.
func SnapshotFilename(t time.Time) string {
	return fmt.Sprintf("ScolarSync_Data_%s.scsync", t.UTC().Format("2006-01-02"))
}

// ExportSnapshot serializes the full dataset as a portable snapshot document:
// five named collections, compact JSON, no version tag, no checksum.
func (s *Service) ExportSnapshot(ctx context.Context) ([]byte, error) {
	var doc []byte
	_, err := s.instrument(ctx, "export_snapshot", "", func(ctx context.Context) (string, Result, error) {
		var err error
		doc, err = json.Marshal(s.store.ExportState())
		return "", Result{}, err
	})
	return doc, err
}

// ImportSnapshot applies a snapshot document. Parsing is all-or-nothing: a
// malformed document leaves the dataset untouched. Each collection key that
// is present replaces the stored collection wholesale; absent keys leave
// their collection as it was. Unknown keys are ignored. Imported records are
// applied verbatim, without rule evaluation, exactly as sent by the exporting
// device.
func (s *Service) ImportSnapshot(ctx context.Context, doc []byte) error {
	_, err := s.instrument(ctx, "import_snapshot", "", func(ctx context.Context) (string, Result, error) {
		parsed, present, err := ParseSnapshot(doc)
		if err != nil {
			return "", Result{}, err
		}
		next := s.store.ExportState()
		if present.Schools {
			next.Schools = parsed.Schools
		}
		if present.Students {
			next.Students = parsed.Students
		}
		if present.Staff {
			next.Staff = parsed.Staff
		}
		if present.ParentAccounts {
			next.ParentAccounts = parsed.ParentAccounts
		}
		if present.Attendance {
			next.Attendance = parsed.Attendance
		}
		s.store.ImportState(next)
		return "", Result{}, nil
	})
	return err
}

// SnapshotKeys reports which collection keys a snapshot document carried.
type SnapshotKeys struct {
	Schools        bool
	Students       bool
	Staff          bool
	ParentAccounts bool
	Attendance     bool
}

// ParseSnapshot decodes every present collection before anything is applied,
// so one bad record rejects the whole document.
func ParseSnapshot(doc []byte) (Snapshot, SnapshotKeys, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(doc))
	if err := dec.Decode(&raw); err != nil {
		return Snapshot{}, SnapshotKeys{}, fmt.Errorf("parse snapshot: %w", err)
	}

	var snap Snapshot
	var present SnapshotKeys
	decodeKey := func(key string, target any, flag *bool) error {
		payload, ok := raw[key]
		if !ok || string(payload) == "null" {
			return nil
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return fmt.Errorf("parse snapshot %s: %w", key, err)
		}
		*flag = true
		return nil
	}
	if err := decodeKey("schools", &snap.Schools, &present.Schools); err != nil {
		return Snapshot{}, SnapshotKeys{}, err
	}
	if err := decodeKey("students", &snap.Students, &present.Students); err != nil {
		return Snapshot{}, SnapshotKeys{}, err
	}
	if err := decodeKey("staff", &snap.Staff, &present.Staff); err != nil {
		return Snapshot{}, SnapshotKeys{}, err
	}
	if err := decodeKey("parentAccounts", &snap.ParentAccounts, &present.ParentAccounts); err != nil {
		return Snapshot{}, SnapshotKeys{}, err
	}
	if err := decodeKey("attendance", &snap.Attendance, &present.Attendance); err != nil {
		return Snapshot{}, SnapshotKeys{}, err
	}
	return snap, present, nil
}

// PublishSnapshot exports the dataset and stores it in the archive under the
// conventional filename for today. Publishing twice on one day replaces the
// day's file.
func (s *Service) PublishSnapshot(ctx context.Context, store archive.Store) (archive.Info, error) {
	var info archive.Info
	_, err := s.instrument(ctx, "publish_snapshot", "", func(ctx context.Context) (string, Result, error) {
		doc, err := json.Marshal(s.store.ExportState())
		if err != nil {
			return "", Result{}, err
		}
		key := SnapshotFilename(time.Now())
		info, err = store.Put(ctx, key, bytes.NewReader(doc), SnapshotContentType)
		return key, Result{}, err
	})
	return info, err
}

// ImportSnapshotFromArchive fetches a published snapshot by key and applies
// it with ImportSnapshot semantics.
func (s *Service) ImportSnapshotFromArchive(ctx context.Context, store archive.Store, key string) error {
	_, rc, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return err
	}
	return s.ImportSnapshot(ctx, buf.Bytes())
}

// ResetDatabase clears all five collections and signs out the current
// session.
func (s *Service) ResetDatabase(ctx context.Context) error {
	_, err := s.instrument(ctx, "reset_database", "", func(ctx context.Context) (string, Result, error) {
		s.store.ImportState(Snapshot{})
		s.store.SetSession(GuestSession())
		return "", Result{}, nil
	})
	return err
}
