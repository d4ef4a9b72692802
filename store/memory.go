package store

import (
	"context"
	"encoding/json"
	"sync"

	"picky/item"
)

// MemoryStore keeps everything in memory. Data is lost on restart.
// Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[item.Kind]map[string]item.Doc
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[item.Kind]map[string]item.Doc),
	}
}

// deepCopy returns a deep copy of a document by round-tripping through JSON.
func deepCopy(src item.Doc) item.Doc {
	if src == nil {
		return nil
	}
	b, _ := json.Marshal(src)
	var dst item.Doc
	_ = json.Unmarshal(b, &dst)
	return dst
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) List(ctx context.Context, kind item.Kind) ([]item.Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll := m.collections[kind]
	docs := make([]item.Doc, 0, len(coll))
	for _, doc := range coll {
		docs = append(docs, deepCopy(doc))
	}
	return docs, nil
}

func (m *MemoryStore) Get(ctx context.Context, kind item.Kind, id string) (item.Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[kind][id]
	if !ok {
		return nil, ErrNotFound
	}
	return deepCopy(doc), nil
}

func (m *MemoryStore) Put(ctx context.Context, kind item.Kind, id string, doc item.Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[kind]; !ok {
		m.collections[kind] = make(map[string]item.Doc)
	}
	m.collections[kind][id] = deepCopy(doc)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, kind item.Kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	coll, ok := m.collections[kind]
	if !ok {
		return ErrNotFound
	}
	if _, exists := coll[id]; !exists {
		return ErrNotFound
	}
	delete(coll, id)
	return nil
}

func (m *MemoryStore) Info() Info {
	return Info{Backend: "memory", Detail: "ephemeral"}
}

func (m *MemoryStore) Close() error { return nil }
