// Package logstore drives the append-only, single-file pack backend.
// Its on-disk convention — one JSON record per line, deletions recorded
// as tombstones, periodically compacted away — mirrors NeDB's
// append-only datafile format, which is the format the host
// application expects for this backend.
package logstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/foundryvtt/foundryvtt-cli/internal/docvalue"
)

const deletedMarker = "$$deleted"

// Store is a single NeDB-style datafile keyed by the document's _id
// field.
type Store struct {
	mu    sync.Mutex
	path  string
	file  *os.File
	index map[string]docvalue.Document
	order []string

	autoCompactStop chan struct{}
}

// Open opens (creating if necessary) the datafile at path and rebuilds
// the in-memory index by scanning every record.
func Open(path string) (*Store, error) {
	return open(path, false)
}

func open(path string, tolerateShortLastLine bool) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logstore: creating parent directory for %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logstore: opening %s: %w", path, err)
	}

	s := &Store{
		path:  path,
		file:  file,
		index: make(map[string]docvalue.Document),
	}
	if err := s.loadIndex(tolerateShortLastLine); err != nil {
		file.Close()
		return nil, err
	}
	return s, nil
}

// loadIndex replays every record in the datafile, building the
// in-memory id -> document map and insertion order. When
// tolerateShortLastLine is true a truncated final line (no trailing
// newline, incomplete JSON) is dropped instead of failing the whole
// load — used by Repair.
func (s *Store) loadIndex(tolerateShortLastLine bool) error {
	s.index = make(map[string]docvalue.Document)
	s.order = s.order[:0]
	return s.replay(tolerateShortLastLine)
}

// replay performs the actual line-by-line replay.
func (s *Store) replay(tolerateShortLastLine bool) error {
	if _, err := s.file.Seek(0, 0); err != nil {
		return fmt.Errorf("logstore: seeking %s: %w", s.path, err)
	}

	scanner := bufio.NewScanner(s.file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lineNum int
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		v, err := docvalue.DecodeJSON(line)
		if err != nil {
			if tolerateShortLastLine {
				// Assume this is a crash-truncated final record and stop
				// replaying; Repair will rewrite the file cleanly below.
				break
			}
			return fmt.Errorf("logstore: parsing %s line %d: %w", s.path, lineNum, err)
		}
		doc, ok := v.(docvalue.Document)
		if !ok {
			return fmt.Errorf("logstore: %s line %d is not an object", s.path, lineNum)
		}
		id, _ := doc.Get("_id")
		idStr, _ := id.(string)
		if idStr == "" {
			return fmt.Errorf("logstore: %s line %d has no _id", s.path, lineNum)
		}

		if deleted, _ := doc.Get(deletedMarker); deleted == true {
			if _, existed := s.index[idStr]; existed {
				delete(s.index, idStr)
				s.removeFromOrder(idStr)
			}
			continue
		}

		if _, existed := s.index[idStr]; !existed {
			s.order = append(s.order, idStr)
		}
		s.index[idStr] = doc
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("logstore: reading %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) removeFromOrder(id string) {
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// FindAll returns every live document, in original insertion order.
func (s *Store) FindAll() ([]docvalue.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]docvalue.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.index[id])
	}
	return out, nil
}

// Insert appends doc, which must carry a non-empty top-level "_id"
// field not already present in the store.
func (s *Store) Insert(doc docvalue.Document) error {
	idVal, ok := doc.Get("_id")
	id, _ := idVal.(string)
	if !ok || id == "" {
		return fmt.Errorf("logstore: document has no _id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[id]; exists {
		return fmt.Errorf("logstore: duplicate _id %q", id)
	}

	if err := s.appendLine(doc); err != nil {
		return err
	}

	s.index[id] = doc
	s.order = append(s.order, id)
	return nil
}

func (s *Store) appendLine(v docvalue.Value) error {
	data, err := docvalue.EncodeJSON(v, 0)
	if err != nil {
		return fmt.Errorf("logstore: encoding record: %w", err)
	}
	data = append(data, '\n')
	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("logstore: appending to %s: %w", s.path, err)
	}
	return nil
}

// Remove appends a tombstone for every live document matching pred and
// evicts them from the in-memory index. It returns the number removed.
func (s *Store) Remove(pred func(docvalue.Document) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for _, id := range append([]string{}, s.order...) {
		doc := s.index[id]
		if !pred(doc) {
			continue
		}
		tombstone := docvalue.Document{{Key: "_id", Value: id}, {Key: deletedMarker, Value: true}}
		if err := s.appendLine(tombstone); err != nil {
			return removed, err
		}
		delete(s.index, id)
		s.removeFromOrder(id)
		removed++
	}
	return removed, nil
}

// DisableAutoCompaction stops the periodic background compaction timer
// started by SetAutoCompactionInterval, if any. Compile disables
// autocompaction for the duration of a batch insert sequence.
func (s *Store) DisableAutoCompaction() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.autoCompactStop != nil {
		close(s.autoCompactStop)
		s.autoCompactStop = nil
	}
}

// SetAutoCompactionInterval starts a background goroutine that compacts
// the datafile every interval. Nothing in the compile/extract paths
// turns this on; it exists because NeDB exposes the same knob and a
// faithful driver should too.
func (s *Store) SetAutoCompactionInterval(interval time.Duration) {
	s.DisableAutoCompaction()

	stop := make(chan struct{})
	s.mu.Lock()
	s.autoCompactStop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = s.Compact()
			}
		}
	}()
}

// Compact rewrites the datafile from the in-memory index, dropping all
// tombstones and superseded records, via a temp file renamed over the
// original so a crash mid-compaction never leaves a half-written file.
func (s *Store) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactLocked()
}

func (s *Store) compactLocked() error {
	tmpPath := s.path + fmt.Sprintf(".compact-%d.tmp", time.Now().UnixNano())
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("logstore: creating compaction temp file: %w", err)
	}

	for _, id := range s.order {
		data, err := docvalue.EncodeJSON(s.index[id], 0)
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("logstore: encoding record during compaction: %w", err)
		}
		if _, err := tmp.Write(append(data, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("logstore: writing compaction temp file: %w", err)
		}
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("logstore: syncing compaction temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("logstore: closing compaction temp file: %w", err)
	}

	if err := s.file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("logstore: closing %s before compaction swap: %w", s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("logstore: replacing %s with compacted file: %w", s.path, err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("logstore: reopening %s after compaction: %w", s.path, err)
	}
	s.file = file
	return nil
}

// Close performs a final synchronous compaction (so the handle is
// released only once the datafile is flushed and clean) and closes the
// underlying file.
func (s *Store) Close() error {
	s.DisableAutoCompaction()

	s.mu.Lock()
	if err := s.compactLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("logstore: closing %s: %w", s.path, err)
	}
	return nil
}

// CloseNoCompact closes the underlying file without rewriting the
// datafile first, for callers that only ever read from the store and
// must leave it byte-for-byte untouched.
func (s *Store) CloseNoCompact() error {
	s.DisableAutoCompaction()

	if err := s.file.Close(); err != nil {
		return fmt.Errorf("logstore: closing %s: %w", s.path, err)
	}
	return nil
}

// Repair reopens path, tolerating a truncated trailing record, and
// rewrites the file cleanly. It reports the number of live documents
// recovered.
func Repair(path string) (int, error) {
	s, err := open(path, true)
	if err != nil {
		return 0, err
	}
	if err := s.Compact(); err != nil {
		s.file.Close()
		return 0, err
	}
	n := len(s.order)
	return n, s.file.Close()
}
