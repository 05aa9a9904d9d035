// Package staging contains request-scoped scratch storage for flattened
// images. Objects staged here live only for the duration of one sheet
// request: a Scope tracks every key it creates and deletes all of them when
// it closes, on success and failure alike.
package staging

import (
	"context"
	"errors"
	"io"
	"time"
)

// PutOptions define optional parameters for staging objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a staged object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Store is a scratch object store. Implementations must be safe for
// concurrent use; keys are flat strings namespaced by the caller.
type Store interface {
	// Put stages an object under the given key from the provided reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	// Get retrieves a staged object's content as a streaming reader.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// Scope tracks the keys staged for one request so they can be released
// together. It is not safe for concurrent use; each request owns one scope.
type Scope struct {
	store  Store
	prefix string
	keys   []string
}

// NewScope creates a scope whose keys all live under the given prefix,
// typically "staging/<request id>".
func NewScope(store Store, prefix string) *Scope {
	return &Scope{store: store, prefix: prefix}
}

// Put stages an object under prefix/name and records the key for release.
func (s *Scope) Put(ctx context.Context, name string, r io.Reader, opt PutOptions) (string, error) {
	key := s.prefix + "/" + name
	if _, err := s.store.Put(ctx, key, r, opt); err != nil {
		return "", err
	}
	s.keys = append(s.keys, key)
	return key, nil
}

// Open returns a reader over a previously staged object.
func (s *Scope) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, _, err := s.store.Get(ctx, key)
	return rc, err
}

// Close deletes every object staged through this scope. All deletions are
// attempted even when some fail; the joined error is returned.
func (s *Scope) Close(ctx context.Context) error {
	var errs []error
	for _, key := range s.keys {
		if err := s.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	s.keys = nil
	return errors.Join(errs...)
}
