package fs_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	fsstore "scolarcore/internal/infra/archive/fs"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	info, err := store.Put(ctx, "exports/ScolarSync_Data_2026-09-01.scsync", strings.NewReader(`{"schools":[]}`), "application/octet-stream")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"schools":[]}`)) {
		t.Fatalf("unexpected size %d", info.Size)
	}

	got, rc, err := store.Get(ctx, "exports/ScolarSync_Data_2026-09-01.scsync")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != `{"schools":[]}` {
		t.Fatalf("unexpected body %q", body)
	}
	if got.Size != info.Size {
		t.Fatalf("head/get size mismatch: %d vs %d", got.Size, info.Size)
	}
}

func TestPutOverwritesSameKey(t *testing.T) {
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "day.scsync", strings.NewReader("first"), ""); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "day.scsync", strings.NewReader("second"), ""); err != nil {
		t.Fatalf("second put: %v", err)
	}
	_, rc, err := store.Get(ctx, "day.scsync")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	body, _ := io.ReadAll(rc)
	if string(body) != "second" {
		t.Fatalf("expected overwrite, got %q", body)
	}
	infos, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("expected single file after overwrite, got %d", len(infos))
	}
}

func TestListFiltersByPrefix(t *testing.T) {
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"2026/a.scsync", "2026/b.scsync", "2025/old.scsync"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), ""); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "2026/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 files, got %d", len(infos))
	}
	if infos[0].Key != "2026/a.scsync" || infos[1].Key != "2026/b.scsync" {
		t.Fatalf("expected key-ordered listing, got %+v", infos)
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "x.scsync", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, "x.scsync")
	if err != nil || !existed {
		t.Fatalf("expected delete of existing file, existed=%v err=%v", existed, err)
	}
	existed, err = store.Delete(ctx, "x.scsync")
	if err != nil || existed {
		t.Fatalf("expected idempotent delete, existed=%v err=%v", existed, err)
	}
}

func TestKeySanitization(t *testing.T) {
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"", "/abs.scsync", "../escape.scsync", "a/../../b"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), ""); err == nil {
			t.Fatalf("expected rejection of key %q", key)
		}
	}
}

func TestShareURLIsLocalFileURL(t *testing.T) {
	store, err := fsstore.New(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Put(ctx, "x.scsync", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	url, err := store.ShareURL(ctx, "x.scsync", time.Minute)
	if err != nil {
		t.Fatalf("share url: %v", err)
	}
	if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, "x.scsync") {
		t.Fatalf("unexpected url %q", url)
	}
}
