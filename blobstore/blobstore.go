// Package blobstore provides an abstraction over the transient blob store.
//
// The blob store issues a usable public URL as soon as an upload finishes,
// but it is not the system of record: blobs are deleted once the record
// store has ingested a copy. Content is addressed by the returned ID, never
// by content hash, so identical uploads produce distinct blobs.
package blobstore

import (
	"context"
	"path"
	"strings"
)

// Store defines the transient blob store operations.
// Implementations must be safe for concurrent use.
type Store interface {
	// Upload stores data and returns its public URL and opaque ID.
	// Failures carry docerr.CodeUploadFailed.
	Upload(ctx context.Context, data []byte, opts UploadOptions) (*Blob, error)

	// Delete removes the blob with the given ID.
	// It is best effort: failures are logged by the implementation and never returned,
	// because deletion is always a cleanup side effect.
	Delete(ctx context.Context, id string)

	// IsConfigured reports whether the store has the settings required to upload.
	IsConfigured() bool
}

// ResourceType selects how the blob store treats uploaded bytes.
type ResourceType string

const (
	// ResourceAuto lets the store detect the content type from the bytes.
	ResourceAuto ResourceType = "auto"

	// ResourceRaw stores the bytes verbatim with the declared content type.
	// Used for document formats that automatic detection mis-handles.
	ResourceRaw ResourceType = "raw"
)

// UploadOptions describes where and how a buffer is stored.
type UploadOptions struct {
	Folder       string
	Filename     string
	ContentType  string
	ResourceType ResourceType
}

// Blob is a stored object.
type Blob struct {
	ID          string
	URL         string
	ContentType string
	Size        int64
}

// Folder returns the blob folder for a record slot, e.g. "projects/rec123/draftMap".
func Folder(prefix, recordID, slotKey string) string {
	return path.Join(strings.Trim(prefix, "/"), recordID, slotKey)
}
