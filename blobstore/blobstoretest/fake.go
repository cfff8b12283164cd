// Package blobstoretest provides an in-memory blobstore.Store for tests.
package blobstoretest

import (
	"context"
	"fmt"
	"sync"

	"github.com/code19m/errx"

	"github.com/rise-and-shine/projectdocs/blobstore"
	"github.com/rise-and-shine/projectdocs/docerr"
)

// Store is an in-memory blob store that records every call.
type Store struct {
	mu sync.Mutex

	// UploadErr, when set, is returned by every Upload.
	UploadErr error
	// Unconfigured makes IsConfigured report false.
	Unconfigured bool
	// BaseURL prefixes issued URLs.
	BaseURL string

	seq     int
	blobs   map[string][]byte
	uploads []blobstore.UploadOptions
	deletes []string
}

var _ blobstore.Store = (*Store)(nil)

// New returns an empty configured store.
func New() *Store {
	return &Store{BaseURL: "https://blobs.test", blobs: map[string][]byte{}}
}

// Upload stores a copy of data.
func (s *Store) Upload(_ context.Context, data []byte, opts blobstore.UploadOptions) (*blobstore.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads = append(s.uploads, opts)
	if s.UploadErr != nil {
		return nil, errx.Wrap(s.UploadErr, errx.WithCode(docerr.CodeUploadFailed), errx.WithType(errx.T_Internal))
	}

	s.seq++
	id := fmt.Sprintf("%s/%d_%s", opts.Folder, s.seq, opts.Filename)
	s.blobs[id] = append([]byte(nil), data...)

	return &blobstore.Blob{
		ID:          id,
		URL:         s.BaseURL + "/" + id,
		ContentType: opts.ContentType,
		Size:        int64(len(data)),
	}, nil
}

// Delete removes the blob and records the call.
func (s *Store) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletes = append(s.deletes, id)
	delete(s.blobs, id)
}

// IsConfigured reports !Unconfigured.
func (s *Store) IsConfigured() bool {
	return !s.Unconfigured
}

// Uploads returns the options of every Upload call.
func (s *Store) Uploads() []blobstore.UploadOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]blobstore.UploadOptions(nil), s.uploads...)
}

// Deletes returns the ids passed to Delete, in call order.
func (s *Store) Deletes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deletes...)
}

// Calls returns the total number of Upload and Delete calls.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.uploads) + len(s.deletes)
}

// Has reports whether a blob with id is stored.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[id]
	return ok
}
