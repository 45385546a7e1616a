package eventqueue

import (
	"context"
	"errors"
	"sync"
)

// Storage is a string key-value store holding the serialized queue.
type Storage interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// Provider offers a durable Storage. It returns ErrStorageUnavailable (or any
// error, or a nil Storage) when no durable backend can be used.
type Provider func(ctx context.Context) (Storage, error)

// StaticProvider returns a Provider yielding storage as is.
func StaticProvider(storage Storage) Provider {
	return func(context.Context) (Storage, error) {
		if storage == nil {
			return nil, ErrStorageUnavailable
		}

		return storage, nil
	}
}

// MemoryStorage keeps values in process memory. Contents do not survive a restart.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

// Get implements Storage.
func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]

	return value, ok, nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value

	return nil
}

// Remove implements Storage.
func (m *MemoryStorage) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)

	return nil
}

// Resolver picks the active Storage on first use and caches it until Reset.
type Resolver struct {
	provider Provider
	logger   Logger

	mu     sync.Mutex
	active Storage
}

// NewResolver constructs a Resolver. A nil provider always resolves to memory.
func NewResolver(provider Provider, logger Logger) *Resolver {
	if logger == nil {
		logger = NopLogger{}
	}

	return &Resolver{provider: provider, logger: logger}
}

// Resolve returns the cached Storage, probing the provider on first call.
// It never fails: without a usable durable backend it falls back to MemoryStorage.
func (r *Resolver) Resolve(ctx context.Context) Storage {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return r.active
	}

	r.active = r.probe(ctx)

	return r.active
}

// Reset forgets the resolved Storage so the next Resolve probes again.
// A previously chosen memory fallback is discarded with its contents.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()
}

func (r *Resolver) probe(ctx context.Context) Storage {
	if r.provider == nil {
		r.logger.Debug("eventqueue storage provider not configured; using memory")

		return NewMemoryStorage()
	}

	storage, err := r.provider(ctx)
	if err != nil {
		if errors.Is(err, ErrStorageUnavailable) {
			r.logger.Info("eventqueue durable storage unavailable; using memory")
		} else {
			r.logger.Warn("eventqueue storage provider failed; using memory", "err", err)
		}

		return NewMemoryStorage()
	}
	if storage == nil {
		r.logger.Warn("eventqueue storage provider returned nil; using memory")

		return NewMemoryStorage()
	}

	return storage
}
