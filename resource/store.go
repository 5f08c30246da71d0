package resource

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Notifier publishes the payload-less "resources changed" event after a
// mutation that altered visible state. Implementations must be safe for
// concurrent use; delivery failures are theirs to log and swallow.
type Notifier interface {
	ResourcesChanged()
}

// NopNotifier discards change events. Useful in tests and before the bus
// layer is wired up.
type NopNotifier struct{}

// ResourcesChanged implements Notifier
func (NopNotifier) ResourcesChanged() {}

// Removed is a key/value pair reported back from RemoveOne.
type Removed struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// StoreOption is a functional option for configuring the Store
type StoreOption func(*Store)

// WithNotifier sets the change notifier for the store
func WithNotifier(n Notifier) StoreOption {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithStoreLogger sets a custom logger for the store
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPreprocessor sets the preprocessor used by Load and Merge
func WithPreprocessor(pre *Preprocessor) StoreOption {
	return func(s *Store) {
		if pre != nil {
			s.pre = pre
		}
	}
}

// Store owns the authoritative resource table for the daemon's lifetime.
// All operations are safe for concurrent use: mutations execute their
// read-decide-write sequence under one exclusive section, reads share a
// read lock and never observe a table mid-mutation.
type Store struct {
	mu        sync.RWMutex
	resources map[string]string

	pre      *Preprocessor
	notifier Notifier
	logger   *slog.Logger
}

// NewStore creates an empty store
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		resources: make(map[string]string),
		pre:       NewPreprocessor(""),
		notifier:  NopNotifier{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load ingests entries from path without overriding existing resources:
// each parsed entry is inserted only if its key is absent. The whole call
// fails without touching the table if the file cannot be read, the
// preprocessor fails, or its output is not UTF-8.
func (s *Store) Load(ctx context.Context, path string, opts FileOptions) error {
	parsed, err := s.ingest(ctx, path, opts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := false
	for k, v := range parsed {
		if _, exists := s.resources[k]; !exists {
			s.resources[k] = v
			changed = true
		}
	}
	size := len(s.resources)
	s.mu.Unlock()

	s.logger.Debug("Resources loaded", "path", path, "parsed", len(parsed), "total", size)
	if changed {
		s.notifier.ResourcesChanged()
	}
	return nil
}

// Merge ingests entries from path, overwriting any existing value for a
// parsed key. Failure semantics match Load: all valid entries from the
// file are applied, or none are.
func (s *Store) Merge(ctx context.Context, path string, opts FileOptions) error {
	parsed, err := s.ingest(ctx, path, opts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	changed := false
	for k, v := range parsed {
		if cur, exists := s.resources[k]; !exists || cur != v {
			s.resources[k] = v
			changed = true
		}
	}
	size := len(s.resources)
	s.mu.Unlock()

	s.logger.Debug("Resources merged", "path", path, "parsed", len(parsed), "total", size)
	if changed {
		s.notifier.ResourcesChanged()
	}
	return nil
}

// ingest runs the slow file/preprocessor work and parsing while holding no
// lock, so concurrent ingestions for different files can overlap.
func (s *Store) ingest(ctx context.Context, path string, opts FileOptions) (map[string]string, error) {
	text, err := s.pre.Run(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return NewParser(s.logger).Parse(text), nil
}

// Set inserts or overwrites a resource. Key and value are trimmed. Setting
// a key to its current value is a no-op and raises no event.
//
// Keys are deliberately not revalidated here: the file-parsing charset rule
// applies only to file ingestion, and programmatic callers are trusted.
func (s *Store) Set(key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	s.mu.Lock()
	cur, exists := s.resources[key]
	if exists && cur == value {
		s.mu.Unlock()
		return
	}
	s.resources[key] = value
	s.mu.Unlock()

	s.logger.Debug("Resource set", "key", key)
	s.notifier.ResourcesChanged()
}

// Add inserts a resource only if the key is absent; an existing key is left
// untouched regardless of value. Key and value are trimmed. Like Set, keys
// are not revalidated on this path.
func (s *Store) Add(key, value string) {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	s.mu.Lock()
	if _, exists := s.resources[key]; exists {
		s.mu.Unlock()
		return
	}
	s.resources[key] = value
	s.mu.Unlock()

	s.logger.Debug("Resource added", "key", key)
	s.notifier.ResourcesChanged()
}

// RemoveOne removes the (trimmed) key and reports the removed pair. An
// absent key is a no-op: no event, ok false.
func (s *Store) RemoveOne(key string) (Removed, bool) {
	key = strings.TrimSpace(key)

	s.mu.Lock()
	value, exists := s.resources[key]
	if !exists {
		s.mu.Unlock()
		return Removed{}, false
	}
	delete(s.resources, key)
	s.mu.Unlock()

	s.logger.Warn("Resource removed", "key", key)
	s.notifier.ResourcesChanged()
	return Removed{Key: key, Value: value}, true
}

// RemoveAll clears the table, raising an event only if it was non-empty.
func (s *Store) RemoveAll() {
	s.mu.Lock()
	size := len(s.resources)
	s.resources = make(map[string]string)
	s.mu.Unlock()

	s.logger.Warn("All resources cleared", "removed", size)
	if size > 0 {
		s.notifier.ResourcesChanged()
	}
}

// Query returns all entries whose key contains the trimmed substring,
// formatted as "key :\tvalue" lines, lexicographically sorted and joined
// by newline. An empty substring matches every entry.
func (s *Store) Query(substring string) string {
	substring = strings.TrimSpace(substring)

	s.mu.RLock()
	matches := make([]string, 0, len(s.resources))
	for k, v := range s.resources {
		if strings.Contains(k, substring) {
			matches = append(matches, k+" :\t"+v)
		}
	}
	s.mu.RUnlock()

	sort.Strings(matches)
	result := strings.Join(matches, "\n")
	s.logger.Debug("Query evaluated", "pattern", substring, "matches", len(matches))
	return result
}

// Get returns the value of the (trimmed) key, or an empty string if the
// key is absent. Absence is not an error.
func (s *Store) Get(key string) string {
	key = strings.TrimSpace(key)

	s.mu.RLock()
	value := s.resources[key]
	s.mu.RUnlock()

	s.logger.Debug("Resource read", "key", key)
	return value
}

// Snapshot returns a copy of the full table, the backing data for the
// read-only resources property exposed on the bus.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(map[string]string, len(s.resources))
	for k, v := range s.resources {
		snapshot[k] = v
	}
	return snapshot
}

// Len returns the number of resources currently in the table
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}
