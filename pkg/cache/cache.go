// Package cache persists generated formulas keyed by a fingerprint of the
// assembled prompt, so repeating a request skips the network entirely.
//
// The store is a single JSON object on disk mapping fingerprints to entries.
// Expiry is lazy: stale entries simply stop matching on lookup and are
// rewritten in place by the next store for their fingerprint.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/formulaspark/formulaspark/pkg/models"
)

// Entry is the persisted record for one fingerprint.
type Entry struct {
	Formula    string    `json:"formula"`
	Timestamp  time.Time `json:"timestamp"`
	UsageCount int       `json:"usage_count"`
}

// Store is a JSON-file-backed formula cache with a fixed retention window.
type Store struct {
	mu      sync.Mutex
	entries map[string]Entry
	path    string
	ttl     time.Duration
	log     *zap.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Fingerprint derives the cache key for a prompt and its header context.
// Both parts are trimmed and lower-cased first, so incidental whitespace or
// letter case never splits the cache. SHA-256 is used as a stable key, not
// as a security boundary.
func Fingerprint(promptText, headerContext string) string {
	normalized := strings.ToLower(strings.TrimSpace(promptText)) +
		":" + strings.ToLower(strings.TrimSpace(headerContext))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// New opens the cache at path, loading any existing file. A missing or
// unreadable file starts the cache empty; the first store rewrites it.
func New(path string, ttl time.Duration, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	s := &Store{
		entries: make(map[string]Entry),
		path:    path,
		ttl:     ttl,
		log:     log,
	}
	s.load()
	return s, nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("cache file unreadable, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		s.log.Warn("cache file corrupt, starting empty",
			zap.String("path", s.path), zap.Error(err))
		s.entries = make(map[string]Entry)
	}
}

// Lookup returns the cached formula for a fingerprint. Entries older than
// the retention window count as absent but stay on disk until overwritten.
func (s *Store) Lookup(key string) (string, bool) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	s.mu.Unlock()

	if !ok || time.Since(entry.Timestamp) >= s.ttl {
		s.misses.Add(1)
		return "", false
	}
	s.hits.Add(1)
	return entry.Formula, true
}

// Put stores a formula under a fingerprint with a fresh timestamp and an
// incremented usage count, then persists the whole file synchronously.
// When the disk write fails the in-memory entry is kept and the error
// reported; the cache stays serviceable for the rest of the session.
func (s *Store) Put(key, formulaText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = Entry{
		Formula:    formulaText,
		Timestamp:  time.Now(),
		UsageCount: s.entries[key].UsageCount + 1,
	}
	return s.persistLocked()
}

// Clear drops every entry and persists the empty object.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]Entry)
	return s.persistLocked()
}

// Stats reports entry and hit/miss counters for this process.
func (s *Store) Stats() models.CacheStats {
	s.mu.Lock()
	entries := int64(len(s.entries))
	s.mu.Unlock()

	return models.CacheStats{
		Entries: entries,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return nil
}
