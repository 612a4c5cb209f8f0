// Package storage provides persistent local storage backed by bbolt.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"go.etcd.io/bbolt"

	"github.com/osa030/tubebox/internal/domain/track"
)

var (
	localStorageBucket = []byte("local_storage")
	historyBucket      = []byte("history")
)

// HistoryEntry is a track that started playing.
type HistoryEntry struct {
	Track    track.Track `json:"track"`
	PlayedAt time.Time   `json:"played_at"`
}

// Store is a bbolt-backed key/value store with a play history.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bbolt database")
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{localStorageBucket, historyBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create buckets")
	}

	return &Store{db: db}, nil
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(localStorageBucket).Get([]byte(key))
		if v != nil {
			value = string(v)
			found = true
		}
		return nil
	})
	if err != nil {
		return "", false, errors.Wrapf(err, "failed to read %s", key)
	}
	return value, found, nil
}

// Set stores value under key.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(localStorageBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write %s", key)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(localStorageBucket).Delete([]byte(key))
	})
}

// historyTimeLayout is fixed width so keys sort chronologically.
const historyTimeLayout = "2006-01-02T15:04:05.000000000Z"

func historyKey(t time.Time, key string) []byte {
	return []byte(fmt.Sprintf("%s|%s", t.UTC().Format(historyTimeLayout), key))
}

// AddToHistory records that t started playing. An older entry for the same
// key is replaced so each key appears once.
func (s *Store) AddToHistory(t track.Track, playedAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket)

		suffix := []byte("|" + t.Key)
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			if bytes.HasSuffix(k, suffix) {
				if err := c.Delete(); err != nil {
					return err
				}
				break
			}
		}

		value, err := json.Marshal(HistoryEntry{Track: t, PlayedAt: playedAt})
		if err != nil {
			return errors.Wrap(err, "failed to encode history entry")
		}
		return b.Put(historyKey(playedAt, t.Key), value)
	})
}

// History returns up to limit entries, most recent first.
func (s *Store) History(limit int) ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return errors.Wrap(err, "failed to decode history entry")
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
