// Package store provides authware.TokenStore implementations for
// persisting the bearer credential across process restarts.
package store

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	authware "github.com/authware/authware-go"
)

var (
	bucketSession = []byte("session")
	keyToken      = []byte("token")
)

// BoltStore persists the credential in a bbolt database file. The
// session manager is the single writer; last write wins.
type BoltStore struct {
	db *bbolt.DB
}

// compile-time check
var _ authware.TokenStore = (*BoltStore)(nil)

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("authware/store: open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSession)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("authware/store: create session bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Load returns the persisted credential, or authware.ErrNoToken.
func (s *BoltStore) Load(ctx context.Context) (string, error) {
	var token string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return authware.ErrNoToken
		}
		data := bucket.Get(keyToken)
		if data == nil {
			return authware.ErrNoToken
		}
		token = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Save replaces the persisted credential.
func (s *BoltStore) Save(ctx context.Context, token string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return fmt.Errorf("session bucket not found")
		}
		return bucket.Put(keyToken, []byte(token))
	})
	if err != nil {
		return fmt.Errorf("authware/store: save token: %w", err)
	}
	return nil
}

// Clear removes the persisted credential. Clearing an empty store is
// not an error.
func (s *BoltStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketSession)
		if bucket == nil {
			return nil
		}
		return bucket.Delete(keyToken)
	})
	if err != nil {
		return fmt.Errorf("authware/store: clear token: %w", err)
	}
	return nil
}

// Close closes the database file.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
