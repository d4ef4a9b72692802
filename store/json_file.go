package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"picky/item"
)

// collectionFile is the on-disk shape of one collection.
type collectionFile struct {
	Items       []item.Doc `json:"items"`
	LastUpdated string     `json:"lastUpdated"`
}

// JSONFileStore stores each collection kind as a separate JSON file.
//
// Layout:
//
//	data_dir/
//	  shopping_items.json
//	  larder_items.json
//	  meal_items.json
//
// Mutations rewrite the whole file through a temp-file rename. There is no
// file locking: concurrent writers risk lost updates (last write wins), an
// accepted limitation for a single-household deployment.
type JSONFileStore struct {
	mu     sync.RWMutex
	dir    string
	logger *slog.Logger
}

func NewJSONFileStore(dir string, logger *slog.Logger) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONFileStore{dir: dir, logger: logger}, nil
}

func (s *JSONFileStore) path(kind item.Kind) string {
	return filepath.Join(s.dir, kind.Collection()+".json")
}

// load reads a collection file. A missing file is an empty collection; a
// corrupt file is logged and treated as empty rather than failing the call.
func (s *JSONFileStore) load(kind item.Kind) ([]item.Doc, error) {
	data, err := os.ReadFile(s.path(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return []item.Doc{}, nil
		}
		return nil, err
	}
	var file collectionFile
	if err := json.Unmarshal(data, &file); err != nil {
		s.logger.Warn("corrupt collection file, treating as empty",
			"path", s.path(kind), "err", err)
		return []item.Doc{}, nil
	}
	if file.Items == nil {
		return []item.Doc{}, nil
	}
	return file.Items, nil
}

// save rewrites a collection file via temp file + rename so a crashed write
// never leaves a half-written collection behind.
func (s *JSONFileStore) save(kind item.Kind, items []item.Doc) error {
	file := collectionFile{
		Items:       items,
		LastUpdated: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, kind.Collection()+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(kind))
}

func (s *JSONFileStore) Ping(ctx context.Context) error {
	if _, err := os.Stat(s.dir); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *JSONFileStore) List(ctx context.Context, kind item.Kind) ([]item.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(kind)
}

func (s *JSONFileStore) Get(ctx context.Context, kind item.Kind, id string) (item.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items, err := s.load(kind)
	if err != nil {
		return nil, err
	}
	for _, doc := range items {
		if doc[item.FieldID] == id {
			return doc, nil
		}
	}
	return nil, ErrNotFound
}

func (s *JSONFileStore) Put(ctx context.Context, kind item.Kind, id string, doc item.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(kind)
	if err != nil {
		return err
	}
	replaced := false
	for i, existing := range items {
		if existing[item.FieldID] == id {
			items[i] = doc
			replaced = true
			break
		}
	}
	if !replaced {
		items = append(items, doc)
	}
	return s.save(kind, items)
}

func (s *JSONFileStore) Delete(ctx context.Context, kind item.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.load(kind)
	if err != nil {
		return err
	}
	for i, doc := range items {
		if doc[item.FieldID] == id {
			items = append(items[:i], items[i+1:]...)
			return s.save(kind, items)
		}
	}
	return ErrNotFound
}

func (s *JSONFileStore) Info() Info {
	return Info{Backend: "json", Detail: s.dir}
}

func (s *JSONFileStore) Close() error { return nil }
