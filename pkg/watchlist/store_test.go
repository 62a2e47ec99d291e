package watchlist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStorage struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStorage) Load(context.Context, string) ([]byte, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return nil, ErrNotFound
}

func (f *failingStorage) Save(context.Context, string, []byte) error {
	f.saves++
	return f.saveErr
}

func TestStoreToggleRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, DefaultKey, []byte(`["bitcoin","ethereum"]`)))

	store := NewStore(storage)
	store.Initialize(ctx)
	require.Equal(t, []string{"bitcoin", "ethereum"}, store.IDs())

	store.Toggle(ctx, "solana")
	assert.True(t, store.Contains("solana"))
	assert.Equal(t, []string{"bitcoin", "ethereum", "solana"}, store.IDs())

	store.Toggle(ctx, "solana")
	assert.False(t, store.Contains("solana"))
	assert.Equal(t, []string{"bitcoin", "ethereum"}, store.IDs())

	payload, err := storage.Load(ctx, DefaultKey)
	require.NoError(t, err)
	assert.JSONEq(t, `["bitcoin","ethereum"]`, string(payload))
}

func TestStoreToggleRemovesFromMiddle(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	store.Initialize(ctx)
	for _, id := range []string{"a", "b", "c"} {
		store.Toggle(ctx, id)
	}
	store.Toggle(ctx, "b")
	assert.Equal(t, []string{"a", "c"}, store.IDs())
	assert.Equal(t, 2, store.Len())
}

func TestStoreInitializeMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()

	empty := NewStore(NewMemoryStorage())
	empty.Initialize(ctx)
	assert.True(t, empty.Initialized())
	assert.Empty(t, empty.IDs())

	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, DefaultKey, []byte(`{not json`)))
	corrupt := NewStore(storage)
	corrupt.Initialize(ctx)
	assert.True(t, corrupt.Initialized())
	assert.Empty(t, corrupt.IDs())

	broken := NewStore(&failingStorage{loadErr: errors.New("disk on fire")})
	broken.Initialize(ctx)
	assert.True(t, broken.Initialized())
	assert.Empty(t, broken.IDs())
}

func TestStoreInitializeDedupesPayload(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(ctx, DefaultKey, []byte(`["bitcoin"," ","ethereum","bitcoin"]`)))

	store := NewStore(storage)
	store.Initialize(ctx)
	assert.Equal(t, []string{"bitcoin", "ethereum"}, store.IDs())
}

func TestStoreInitializeOnce(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	store := NewStore(storage)
	store.Initialize(ctx)
	store.Toggle(ctx, "bitcoin")

	require.NoError(t, storage.Save(ctx, DefaultKey, []byte(`["dogecoin"]`)))
	store.Initialize(ctx)
	assert.Equal(t, []string{"bitcoin"}, store.IDs())
}

func TestStoreToggleBeforeInitializeIgnored(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	store := NewStore(storage)

	store.Toggle(ctx, "bitcoin")
	assert.False(t, store.Contains("bitcoin"))
	assert.Zero(t, storage.saves)
}

func TestStoreWriteFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{saveErr: errors.New("quota exceeded")}
	store := NewStore(storage)
	store.Initialize(ctx)

	store.Toggle(ctx, "bitcoin")
	assert.True(t, store.Contains("bitcoin"))
	assert.Equal(t, 1, storage.saves)

	store.Toggle(ctx, "bitcoin")
	assert.False(t, store.Contains("bitcoin"))
	assert.Equal(t, 2, storage.saves)
}

func TestStoreBlankIDIgnored(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	store := NewStore(storage)
	store.Initialize(ctx)
	store.Toggle(ctx, "   ")
	assert.Empty(t, store.IDs())
	assert.Zero(t, storage.saves)
}

func TestStoreIDsIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	store.Initialize(ctx)
	store.Toggle(ctx, "bitcoin")

	ids := store.IDs()
	ids[0] = "mutated"
	assert.True(t, store.Contains("bitcoin"))
}

func TestStoreConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	store.Initialize(ctx)

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			store.Toggle(ctx, id)
		}(id)
	}
	wg.Wait()
	assert.ElementsMatch(t, ids, store.IDs())
}

func TestStoreMsgpackCodec(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	first := NewStore(storage, WithCodec(MsgpackCodec{}), WithKey("k"))
	first.Initialize(ctx)
	first.Toggle(ctx, "bitcoin")
	first.Toggle(ctx, "ethereum")

	second := NewStore(storage, WithCodec(MsgpackCodec{}), WithKey("k"))
	second.Initialize(ctx)
	assert.Equal(t, []string{"bitcoin", "ethereum"}, second.IDs())

	// A JSON reader treats the msgpack payload as corrupt.
	third := NewStore(storage, WithKey("k"))
	third.Initialize(ctx)
	assert.Empty(t, third.IDs())
}

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]string{"": "json", "JSON": "json", "msgpack": "msgpack"} {
		codec, err := CodecByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, codec.Name())
	}
	_, err := CodecByName("xml")
	assert.Error(t, err)
}

func TestJSONCodecEmptyList(t *testing.T) {
	payload, err := JSONCodec{}.Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(payload))
}
