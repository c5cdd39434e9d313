// Package sortedstore drives the ordered key/value pack backend. It is
// wire-compatible with LevelDB on disk, via github.com/syndtr/goleveldb,
// because the host application that consumes these packs reads them
// with a real LevelDB implementation — nothing short of the real format
// round-trips there.
package sortedstore

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

// Store wraps an open LevelDB directory, storing JSON-encoded
// docvalue.Value payloads under string keys.
type Store struct {
	db   *leveldb.DB
	path string
}

// Open opens path as a sorted store. When createIfMissing is false (the
// extract path), a missing directory is a hard error rather than being
// silently created.
func Open(path string, createIfMissing bool) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		ErrorIfMissing: !createIfMissing,
	})
	if err != nil {
		return nil, fmt.Errorf("sortedstore: opening %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("sortedstore: closing %s: %w", s.path, err)
	}
	return nil
}

// Get fetches and decodes the value stored under key. found is false
// when the key does not exist.
func (s *Store) Get(key string) (value docvalue.Value, found bool, err error) {
	data, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sortedstore: get %q: %w", key, err)
	}
	v, err := docvalue.DecodeJSON(data)
	if err != nil {
		return nil, false, fmt.Errorf("sortedstore: decoding value for %q: %w", key, err)
	}
	return v, true, nil
}

// GetMany fetches every key in keys, omitting any that are not found.
func (s *Store) GetMany(keys []string) (map[string]docvalue.Value, error) {
	out := make(map[string]docvalue.Value, len(keys))
	for _, key := range keys {
		v, found, err := s.Get(key)
		if err != nil {
			return nil, err
		}
		if found {
			out[key] = v
		}
	}
	return out, nil
}

// Entry is one decoded (key, value) pair yielded by ForEach.
type Entry struct {
	Key   string
	Value docvalue.Value
}

// ForEach visits every entry in key order. Iteration stops at the first
// error, whether returned by the iterator or by fn.
func (s *Store) ForEach(fn func(Entry) error) error {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		v, err := docvalue.DecodeJSON(cloneBytes(iter.Value()))
		if err != nil {
			return fmt.Errorf("sortedstore: decoding value for %q: %w", string(iter.Key()), err)
		}
		if err := fn(Entry{Key: string(iter.Key()), Value: v}); err != nil {
			return err
		}
	}
	return iterErr(iter)
}

// SmallestKey returns the first key in sort order, via a one-step
// forward scan.
func (s *Store) SmallestKey() (string, bool, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	if !iter.First() {
		return "", false, iterErr(iter)
	}
	return string(iter.Key()), true, nil
}

// LargestKey returns the last key in sort order, via a one-step
// backward scan.
func (s *Store) LargestKey() (string, bool, error) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()
	if !iter.Last() {
		return "", false, iterErr(iter)
	}
	return string(iter.Key()), true, nil
}

func iterErr(iter iterator.Iterator) error {
	if err := iter.Error(); err != nil {
		return fmt.Errorf("sortedstore: iterating: %w", err)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Batch accumulates put/delete operations applied atomically by Write.
type Batch struct {
	b *leveldb.Batch
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{b: new(leveldb.Batch)}
}

// Put stages a JSON-encoded put of value under key.
func (batch *Batch) Put(key string, value docvalue.Value) error {
	data, err := docvalue.EncodeJSON(value, 0)
	if err != nil {
		return fmt.Errorf("sortedstore: encoding value for %q: %w", key, err)
	}
	batch.b.Put([]byte(key), data)
	return nil
}

// Delete stages a delete of key.
func (batch *Batch) Delete(key string) {
	batch.b.Delete([]byte(key))
}

// Len reports the number of staged operations.
func (batch *Batch) Len() int {
	return batch.b.Len()
}

// Write applies batch atomically.
func (s *Store) Write(batch *Batch) error {
	if err := s.db.Write(batch.b, nil); err != nil {
		return fmt.Errorf("sortedstore: writing batch: %w", err)
	}
	return nil
}

// CompactAfterRewrite forces the store's write-ahead log to compact
// into on-disk tables, using the smallest/largest keys currently
// present as the compaction range. A store with no entries is left
// untouched.
func (s *Store) CompactAfterRewrite() error {
	lo, ok, err := s.SmallestKey()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	hi, ok, err := s.LargestKey()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	limit := append([]byte(hi), 0xFF)
	if err := s.db.CompactRange(util.Range{Start: []byte(lo), Limit: limit}); err != nil {
		return fmt.Errorf("sortedstore: compacting [%q, %q]: %w", lo, hi, err)
	}
	return nil
}

// Repair runs LevelDB's recovery routine against path. It is exposed
// for RepairPack; the compile/extract paths never call it themselves.
func Repair(path string) error {
	db, err := leveldb.RecoverFile(path, nil)
	if err != nil {
		return fmt.Errorf("sortedstore: repairing %s: %w", path, err)
	}
	return db.Close()
}
