// Package watchlist keeps the ordered, duplicate-free list of coins a user
// follows and mirrors every change to durable storage.
package watchlist

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/zeromicro/go-zero/core/logx"
)

// DefaultKey is the storage key used when a store is not scoped to a session.
const DefaultKey = "coinlook_watchlist"

// Store is safe for concurrent use. Memory is authoritative: storage failures
// are logged and never undo an in-memory change.
type Store struct {
	mu          sync.Mutex
	key         string
	storage     Storage
	codec       Codec
	ids         []string
	initialized bool
}

// Option customises a Store.
type Option func(*Store)

// WithKey sets the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if strings.TrimSpace(key) != "" {
			s.key = key
		}
	}
}

// WithCodec sets the payload encoding.
func WithCodec(codec Codec) Option {
	return func(s *Store) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// NewStore builds an uninitialised store. A nil storage keeps the list in memory only.
func NewStore(storage Storage, opts ...Option) *Store {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	s := &Store{
		key:     DefaultKey,
		storage: storage,
		codec:   JSONCodec{},
		ids:     []string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the persisted list. A missing entry yields an empty list and
// an unreadable one is logged, then treated as empty. Later calls do nothing.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return
	}
	s.initialized = true

	payload, err := s.storage.Load(ctx, s.key)
	switch {
	case errors.Is(err, ErrNotFound):
		return
	case err != nil:
		logx.WithContext(ctx).Errorf("watchlist: load %s: %v", s.key, err)
		return
	}
	ids, err := s.codec.Decode(payload)
	if err != nil {
		logx.WithContext(ctx).Errorf("watchlist: discard corrupt %s payload for %s: %v", s.codec.Name(), s.key, err)
		return
	}
	s.ids = dedupe(ids)
}

// Initialized reports whether Initialize has completed.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Toggle removes id when present and appends it otherwise, then writes the
// new list to storage. It is ignored before Initialize.
func (s *Store) Toggle(ctx context.Context, id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		logx.WithContext(ctx).Infof("watchlist: toggle %s ignored before initialization of %s", id, s.key)
		return
	}

	if i := s.indexOf(id); i >= 0 {
		s.ids = append(s.ids[:i:i], s.ids[i+1:]...)
	} else {
		s.ids = append(s.ids, id)
	}
	s.persist(ctx)
}

// Contains reports whether id is in the list.
func (s *Store) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// IDs returns a copy of the list in insertion order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.ids...)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

func (s *Store) indexOf(id string) int {
	for i, existing := range s.ids {
		if existing == id {
			return i
		}
	}
	return -1
}

// persist must run with s.mu held.
func (s *Store) persist(ctx context.Context) {
	payload, err := s.codec.Encode(s.ids)
	if err != nil {
		logx.WithContext(ctx).Errorf("watchlist: encode %s: %v", s.key, err)
		return
	}
	if err := s.storage.Save(ctx, s.key, payload); err != nil {
		logx.WithContext(ctx).Errorf("watchlist: save %s: %v", s.key, err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
