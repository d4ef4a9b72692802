package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"picky/item"
)

// SQLiteStore stores every collection in a single SQLite database.
//
// Table:
//
//	items(kind, id, data)  PRIMARY KEY (kind, id)
type SQLiteStore struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS items (
		kind TEXT NOT NULL,
		id   TEXT NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (kind, id)
	)`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, path: dbPath}, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, kind item.Kind) ([]item.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		"SELECT data FROM items WHERE kind = ?", string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	docs := []item.Doc{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var doc item.Doc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Get(ctx context.Context, kind item.Kind, id string) (item.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM items WHERE kind = ? AND id = ?",
		string(kind), id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc item.Doc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStore) Put(ctx context.Context, kind item.Kind, id string, doc item.Doc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (kind, id, data) VALUES (?, ?, ?)
		 ON CONFLICT(kind, id) DO UPDATE SET data = excluded.data`,
		string(kind), id, string(b),
	)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, kind item.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM items WHERE kind = ? AND id = ?",
		string(kind), id,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Info() Info {
	return Info{Backend: "sqlite", Detail: s.path}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
