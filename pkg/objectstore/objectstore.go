// Package objectstore defines the read-only object store surface the object
// proxy depends on. Implementations live in the s3 and memory subpackages.
package objectstore

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound is wrapped by implementations when a key or bucket does not exist.
	ErrNotFound = errors.New("object not found")
)

// Listing is one delimited listing of a prefix, all pages merged.
//
// A nil slice means the store reported no such section at all, which
// callers distinguish from an empty one.
type Listing struct {
	// Contents holds full object keys directly under the prefix.
	Contents []string

	// CommonPrefixes holds the rolled-up "subdirectory" prefixes, each
	// ending with the delimiter.
	CommonPrefixes []string
}

// Download is an open object body. The caller must close Body.
type Download struct {
	Body io.ReadCloser

	// ContentType is nil when the store returned none.
	ContentType *string

	// ContentLength is nil when unknown.
	ContentLength *int64
}

// Client is a read-only view of an object store.
//
// Implementations must be safe for concurrent use.
type Client interface {
	ListObjectsV2(ctx context.Context, bucket, prefix, delimiter string) (*Listing, error)
	GetObject(ctx context.Context, bucket, key string) (*Download, error)
	HeadBucket(ctx context.Context, bucket string) error
}
