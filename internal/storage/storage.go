// Package storage stores mockup images shown in the client portal.
//
// Two backends implement the Storage interface: LocalStorage writes to
// the filesystem for development, R2Storage talks to Cloudflare R2
// (S3-compatible) in production.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for object storage operations.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists if the
	// key is taken and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close
	// the returned reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object. Public objects get a
	// permanent URL; otherwise a presigned URL valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is the MIME type. Detected from the key when empty.
	ContentType string

	// MaxSize caps the object size in bytes. 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool

	// Public marks the object publicly readable.
	Public bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "./storage".
	BasePath string

	// BaseURL is the public URL prefix, e.g. "http://localhost:8080/files".
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's custom domain, e.g. "https://files.loiredigital.fr".
	// If empty, presigned URLs are used for all access.
	PublicURL string

	// Region can be any valid region string; R2 ignores it. Default "auto".
	Region string
}

// Provider names accepted by STORAGE_PROVIDER.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// =============================================================================
// Key Generation
// =============================================================================

// MockupKey generates a storage key for an uploaded mockup image.
// Format: projects/{projectID}/mockups/{uuid}.{ext}
func MockupKey(projectID uuid.UUID, filename string) string {
	return fmt.Sprintf("projects/%s/mockups/%s%s", projectID, uuid.New(), filepath.Ext(filename))
}

// ThumbnailKey generates the key for a mockup's thumbnail, derived from
// the mockup key so the pair stays adjacent.
// Format: projects/{projectID}/thumbnails/{uuid}.{ext}
func ThumbnailKey(projectID uuid.UUID, mockupKey string) string {
	base := filepath.Base(mockupKey)
	return fmt.Sprintf("projects/%s/thumbnails/%s", projectID, base)
}
