package cart

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"
)

// SessionStore хранит содержимое корзины (product id -> количество) по идентификатору сессии.
// Load для неизвестной сессии возвращает пустую map без ошибки.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (map[uuid.UUID]int, error)
	Save(ctx context.Context, sessionID string, items map[uuid.UUID]int) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore — хранилище в памяти процесса, когда Redis выключен.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]map[uuid.UUID]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]map[uuid.UUID]int)}
}

func (m *MemoryStore) Load(_ context.Context, sessionID string) (map[uuid.UUID]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make(map[uuid.UUID]int, len(m.carts[sessionID]))
	maps.Copy(items, m.carts[sessionID])
	return items, nil
}

func (m *MemoryStore) Save(_ context.Context, sessionID string, items map[uuid.UUID]int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(items) == 0 {
		delete(m.carts, sessionID)
		return nil
	}
	m.carts[sessionID] = maps.Clone(items)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, sessionID)
	return nil
}
