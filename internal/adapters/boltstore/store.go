// Package boltstore keeps the player's progress as a JSON document in a
// bbolt database.
package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lcalzada-xor/netcity/internal/core/domain"
	"github.com/lcalzada-xor/netcity/internal/core/ports"
	bolt "go.etcd.io/bbolt"
)

const (
	progressBucket = "progress"
	progressKey    = "current"
	openTimeout    = 2 * time.Second
)

// Store implements ports.ProgressRepository on a single bbolt file.
type Store struct {
	db *bolt.DB
}

// Open creates the database file and its parent directory when missing.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create progress directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open progress database: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(progressBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create progress bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Load(_ context.Context) (domain.Progress, error) {
	p := domain.NewProgress()
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(progressBucket)).Get([]byte(progressKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return domain.NewProgress(), fmt.Errorf("decode progress: %w", err)
	}
	p.Normalize()
	return p, nil
}

func (s *Store) Save(_ context.Context, progress domain.Progress) error {
	progress.Normalize()
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(progressBucket)).Put([]byte(progressKey), data)
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ ports.ProgressRepository = (*Store)(nil)
