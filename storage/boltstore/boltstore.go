// Package boltstore persists demo sessions in a bbolt file.
package boltstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/nuvatw/nuva-club/core/demo"
)

var sessionsBucket = []byte("demo_sessions")

type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the bolt file at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("bolt path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating bolt directory")
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt db")
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, id string) (demo.State, error) {
	if err := ctx.Err(); err != nil {
		return demo.State{}, err
	}
	var st demo.State
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(sessionsBucket).Get([]byte(id))
		if raw == nil {
			return demo.ErrSessionNotFound
		}
		return json.Unmarshal(raw, &st)
	})
	return st, err
}

func (s *Store) Save(ctx context.Context, st demo.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(st.SessionID) == "" {
		return errors.New("session id is required")
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encoding demo state")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(st.SessionID), payload)
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		if b.Get([]byte(id)) == nil {
			return demo.ErrSessionNotFound
		}
		return b.Delete([]byte(id))
	})
}

// Count returns the number of stored sessions.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(sessionsBucket).Stats().KeyN
		return nil
	})
	return n, err
}
