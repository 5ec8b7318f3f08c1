// Package memory is an in-process objectstore.Client for tests and local
// development.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/marmos91/gatehouse/pkg/objectstore"
)

type object struct {
	data        []byte
	contentType *string
}

// Store keeps buckets and objects in maps. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string]object

	// Fault injection. When set, the matching operation fails with the error.
	ListErr error
	GetErr  error
	HeadErr error

	getCalls int
}

// New creates an empty store.
func New() *Store {
	return &Store{buckets: make(map[string]map[string]object)}
}

// CreateBucket creates bucket if it does not exist.
func (s *Store) CreateBucket(bucket string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]object)
	}
}

// Put stores data under key, creating the bucket as needed. An empty
// contentType stores the object without one.
func (s *Store) Put(bucket, key string, data []byte, contentType string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[bucket]
	if !ok {
		b = make(map[string]object)
		s.buckets[bucket] = b
	}

	obj := object{data: append([]byte(nil), data...)}
	if contentType != "" {
		obj.contentType = &contentType
	}
	b[key] = obj
}

// GetCalls returns how many times GetObject was called.
func (s *Store) GetCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getCalls
}

// ListObjectsV2 lists keys under prefix, rolling up keys that contain the
// delimiter after the prefix into common prefixes. Keys come back in
// lexical order, as S3 returns them.
func (s *Store) ListObjectsV2(ctx context.Context, bucket, prefix, delimiter string) (*objectstore.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("bucket %q: %w", bucket, objectstore.ErrNotFound)
	}

	keys := make([]string, 0, len(b))
	for k := range b {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	listing := &objectstore.Listing{}
	seen := make(map[string]bool)
	for _, k := range keys {
		rest := k[len(prefix):]
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+len(delimiter)]
				if !seen[cp] {
					seen[cp] = true
					listing.CommonPrefixes = append(listing.CommonPrefixes, cp)
				}
				continue
			}
		}
		listing.Contents = append(listing.Contents, k)
	}
	return listing, nil
}

// GetObject returns a reader over a copy of the object.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (*objectstore.Download, error) {
	s.mu.Lock()
	s.getCalls++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.buckets[bucket][key]
	if !ok {
		return nil, fmt.Errorf("key %q: %w", key, objectstore.ErrNotFound)
	}

	size := int64(len(obj.data))
	return &objectstore.Download{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentType:   obj.contentType,
		ContentLength: &size,
	}, nil
}

// HeadBucket reports whether bucket exists.
func (s *Store) HeadBucket(ctx context.Context, bucket string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.HeadErr != nil {
		return s.HeadErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.buckets[bucket]; !ok {
		return fmt.Errorf("bucket %q: %w", bucket, objectstore.ErrNotFound)
	}
	return nil
}

var _ objectstore.Client = (*Store)(nil)
