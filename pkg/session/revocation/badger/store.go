// Package badger persists revoked session ids in BadgerDB so that logout
// survives a restart.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "revoked:"

// Store is a BadgerDB-backed revocation list. Entries carry a TTL equal to
// the remaining lifetime of the revoked token, so BadgerDB drops them on
// its own once the token could no longer verify.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db  *badgerdb.DB
	now func() time.Time
}

// Open opens (or creates) a revocation store at path.
func Open(path string) (*Store, error) {
	return open(badgerdb.DefaultOptions(path))
}

// OpenInMemory opens a store that keeps everything in memory. Useful for tests.
func OpenInMemory() (*Store, error) {
	return open(badgerdb.DefaultOptions("").WithInMemory(true))
}

func open(opts badgerdb.Options) (*Store, error) {
	db, err := badgerdb.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open revocation store: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func revokedKey(id string) []byte {
	return []byte(keyPrefix + id)
}

// Revoke records id until the given time. A zero until never expires.
// Revoking an already expired token is a no-op.
func (s *Store) Revoke(ctx context.Context, id string, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entry := badgerdb.NewEntry(revokedKey(id), []byte(until.UTC().Format(time.RFC3339)))
	if !until.IsZero() {
		ttl := until.Sub(s.now())
		if ttl <= 0 {
			return nil
		}
		entry = entry.WithTTL(ttl)
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to store revocation: %w", err)
	}
	return nil
}

// IsRevoked reports whether id has been revoked and not yet expired.
func (s *Store) IsRevoked(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	var revoked bool
	err := s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get(revokedKey(id))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		revoked = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to read revocation: %w", err)
	}
	return revoked, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
