package watchlist

import (
	"context"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/collection"
)

// DefaultSession names the watchlist used by callers that send no session.
const DefaultSession = "default"

const (
	defaultSessionLimit = 10000
	defaultSessionTTL   = 30 * time.Minute
)

// KeyFunc maps a session id to a storage key.
type KeyFunc func(session string) string

// Registry hands out one initialised Store per session. Loaded stores live in
// a bounded LRU; an evicted session is reloaded from storage on its next use.
type Registry struct {
	storage Storage
	codec   Codec
	keyFor  KeyFunc
	limit   int
	ttl     time.Duration
	stores  *collection.Cache
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithSessionLimit caps how many session stores stay loaded. n <= 0 keeps the
// default.
func WithSessionLimit(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithSessionTTL drops a loaded store once it has gone unused for d.
// d <= 0 keeps the default.
func WithSessionTTL(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// NewRegistry shares storage and codec across every session store. A nil keyFor
// maps every session to "coinlook:watchlist:<session>".
func NewRegistry(storage Storage, codec Codec, keyFor KeyFunc, opts ...RegistryOption) *Registry {
	if storage == nil {
		storage = NewMemoryStorage()
	}
	if codec == nil {
		codec = JSONCodec{}
	}
	if keyFor == nil {
		keyFor = func(session string) string { return "coinlook:watchlist:" + session }
	}
	r := &Registry{
		storage: storage,
		codec:   codec,
		keyFor:  keyFor,
		limit:   defaultSessionLimit,
		ttl:     defaultSessionTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	stores, err := collection.NewCache(r.ttl, collection.WithLimit(r.limit), collection.WithName("watchlist-sessions"))
	if err != nil {
		// NewCache only fails on invalid options, and the ones above are fixed.
		panic(err)
	}
	r.stores = stores
	return r
}

// Store returns the session's store, loading it from storage on first use.
func (r *Registry) Store(ctx context.Context, session string) *Store {
	session = normalizeSession(session)

	// Take shares one fetch between concurrent first callers. The fetch
	// never fails.
	v, _ := r.stores.Take(session, func() (any, error) {
		return NewStore(r.storage, WithKey(r.keyFor(session)), WithCodec(r.codec)), nil
	})
	store := v.(*Store)
	// Set restarts the expiry, so the TTL measures idle time.
	r.stores.Set(session, store)
	store.Initialize(ctx)
	return store
}

// Loaded reports whether the session's store is currently held in memory.
func (r *Registry) Loaded(session string) bool {
	_, ok := r.stores.Get(normalizeSession(session))
	return ok
}

// Forget drops the session's loaded store. Its persisted list is untouched.
func (r *Registry) Forget(session string) {
	r.stores.Del(normalizeSession(session))
}

func normalizeSession(session string) string {
	session = strings.TrimSpace(session)
	if session == "" {
		return DefaultSession
	}
	return session
}
