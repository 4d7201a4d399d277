// Package cursor persists the crawl resumption point in a local bbolt file.
package cursor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"ghlicense/logger"
	"ghlicense/models"
)

const (
	bucketCursor = "cursor" // key: "current" -> Cursor JSON
	keyCurrent   = "current"
)

// ErrCursorRewind is returned when Advance would move the cursor backwards.
var ErrCursorRewind = errors.New("cursor cannot move backwards")

// Store is the durable crawl cursor. Every write is fsynced before it returns.
type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens or creates the cursor file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor store %s: %w", path, err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketCursor))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize cursor store: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Load returns the stored cursor. ok is false when none has been saved yet.
func (s *Store) Load() (c models.Cursor, ok bool, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketCursor)).Get([]byte(keyCurrent))
		if data == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(data, &c)
	})
	if err != nil {
		return models.Cursor{}, false, fmt.Errorf("failed to load cursor: %w", err)
	}
	return c, ok, nil
}

// Advance stores next as the resumption point. A cursor whose LastRepoID is
// lower than the stored one is rejected with ErrCursorRewind.
func (s *Store) Advance(next models.Cursor) error {
	return s.put(next, false)
}

// Override stores c unconditionally. It is the operator path for rewinding.
func (s *Store) Override(c models.Cursor) error {
	return s.put(c, true)
}

func (s *Store) put(c models.Cursor, force bool) error {
	c.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(&c)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketCursor))
		if !force {
			if prev := bucket.Get([]byte(keyCurrent)); prev != nil {
				var stored models.Cursor
				if err := json.Unmarshal(prev, &stored); err != nil {
					return err
				}
				if c.LastRepoID < stored.LastRepoID {
					return fmt.Errorf("%w: %d < %d", ErrCursorRewind, c.LastRepoID, stored.LastRepoID)
				}
			}
		}
		return bucket.Put([]byte(keyCurrent), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}

	logger.Debug("Saved crawl cursor",
		zap.String("next_url", c.NextURL),
		zap.Int64("last_repo_id", c.LastRepoID),
		zap.Bool("override", force))
	return nil
}

// Close closes the cursor file
func (s *Store) Close() error {
	return s.db.Close()
}
