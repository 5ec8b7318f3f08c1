// Package objects is the read-only browsing proxy in front of one bucket:
// it turns delimited listings into file/dir entries and reads whole
// objects into memory for JSON transport.
package objects

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/pkg/objectstore"
)

// Delimiter separates path segments in object keys.
const Delimiter = "/"

// DefaultMaxObjectSize caps Get when Config.MaxObjectSize is zero.
const DefaultMaxObjectSize = 64 << 20

// Kind classifies a listing entry.
type Kind string

const (
	KindFile Kind = "file"
	KindDir  Kind = "dir"
)

// KindOf derives the kind solely from a trailing delimiter.
func KindOf(name string) Kind {
	if strings.HasSuffix(name, Delimiter) {
		return KindDir
	}
	return KindFile
}

// Entry is one item of a listing. Name is the full key or prefix.
type Entry struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Object is a fully read object. Payload is encoded as standard base64
// under "blob" by encoding/json.
type Object struct {
	Payload  []byte `json:"blob"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// Config configures a Proxy.
type Config struct {
	Bucket string

	// AllowEmptyListing returns an empty slice for a prefix with neither
	// contents nor common prefixes instead of a "no contents" ListError.
	AllowEmptyListing bool

	// MaxObjectSize caps the bytes Get reads. Default: 64 MiB
	MaxObjectSize int64
}

// Proxy is stateless apart from its configuration and safe for concurrent use.
type Proxy struct {
	store objectstore.Client
	cfg   Config
}

// New creates a proxy over one bucket of store.
func New(store objectstore.Client, cfg Config) *Proxy {
	if cfg.MaxObjectSize <= 0 {
		cfg.MaxObjectSize = DefaultMaxObjectSize
	}
	return &Proxy{store: store, cfg: cfg}
}

// Bucket returns the proxied bucket name.
func (p *Proxy) Bucket() string {
	return p.cfg.Bucket
}

// List returns the immediate children of prefix: object keys first, then
// common prefixes, each in store order. The folder marker whose key equals
// the prefix itself is skipped.
func (p *Proxy) List(ctx context.Context, prefix string) ([]Entry, error) {
	listing, err := p.store.ListObjectsV2(ctx, p.cfg.Bucket, prefix, Delimiter)
	if err != nil {
		return nil, &ListError{Prefix: prefix, Reason: ReasonUpstream, Err: err}
	}

	if listing.Contents == nil && listing.CommonPrefixes == nil {
		if p.cfg.AllowEmptyListing {
			return []Entry{}, nil
		}
		return nil, &ListError{Prefix: prefix, Reason: ReasonNoContents}
	}

	entries := make([]Entry, 0, len(listing.Contents)+len(listing.CommonPrefixes))
	for _, key := range listing.Contents {
		if key == prefix {
			continue
		}
		entries = append(entries, Entry{Name: key, Kind: KindOf(key)})
	}
	for _, cp := range listing.CommonPrefixes {
		entries = append(entries, Entry{Name: cp, Kind: KindOf(cp)})
	}

	logger.DebugCtx(ctx, "Listed objects", logger.Bucket(p.cfg.Bucket), logger.Prefix(prefix), logger.Entries(len(entries)))
	return entries, nil
}

// Get reads the whole object at path. The body is always closed.
func (p *Proxy) Get(ctx context.Context, path string) (*Object, error) {
	if path == "" {
		return nil, ErrMissingPath
	}

	dl, err := p.store.GetObject(ctx, p.cfg.Bucket, path)
	if err != nil {
		return nil, &GetError{Path: path, Reason: ReasonUpstream, Err: err}
	}
	defer func() { _ = dl.Body.Close() }()

	if dl.ContentLength != nil && *dl.ContentLength > p.cfg.MaxObjectSize {
		return nil, &GetError{Path: path, Reason: ReasonTooLarge}
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(dl.Body, p.cfg.MaxObjectSize+1))
	if err != nil {
		return nil, &GetError{Path: path, Reason: ReasonReadBody, Err: err}
	}
	if n > p.cfg.MaxObjectSize {
		return nil, &GetError{Path: path, Reason: ReasonTooLarge}
	}

	if dl.ContentType == nil || *dl.ContentType == "" {
		return nil, &GetError{Path: path, Reason: ReasonMissingContentType}
	}

	name := path
	if i := strings.LastIndex(path, Delimiter); i >= 0 {
		name = path[i+1:]
	}

	logger.DebugCtx(ctx, "Read object",
		logger.Bucket(p.cfg.Bucket), logger.Key(path), logger.Size(n), logger.MimeType(*dl.ContentType))

	return &Object{
		Payload:  buf.Bytes(),
		Name:     name,
		MimeType: *dl.ContentType,
	}, nil
}
