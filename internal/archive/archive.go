// Package archive re-exports the snapshot archive abstractions and selects a
// backend from the environment. Callers outside the infra tree import this
// package only.
package archive

import (
	"context"
	"fmt"
	"os"

	"scolarcore/internal/archive/core"
	fsstore "scolarcore/internal/infra/archive/fs"
	memorystore "scolarcore/internal/infra/archive/memory"
	s3store "scolarcore/internal/infra/archive/s3"
)

type (
	// Driver identifies an archive backend driver.
	Driver = core.Driver
	// Info describes a stored snapshot file.
	Info = core.Info
	// Store is the interface for snapshot archive backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// NewFilesystem returns a filesystem archive rooted at path, creating it if
// needed.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// NewMemory returns an in-memory archive suitable for tests.
func NewMemory() Store { return memorystore.New() }

// S3Config re-exports the infra S3 configuration type.
type S3Config = s3store.Config

// NewS3 constructs an S3-backed archive from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) { return s3store.New(ctx, cfg) }

// NewMockS3ForTests exposes the in-memory S3 mock for cross-package tests.
func NewMockS3ForTests() Store { return s3store.NewMockForTests() }

// Open selects an archive backend using environment variables.
//
//	SCOLARCORE_ARCHIVE_DRIVER: fs|s3|memory (default fs)
//	SCOLARCORE_ARCHIVE_FS_ROOT: directory root when driver=fs (default ./snapshots)
//	(S3 specific variables documented in the s3 backend)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("SCOLARCORE_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("SCOLARCORE_ARCHIVE_FS_ROOT"))
	case DriverS3:
		return s3store.OpenFromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
