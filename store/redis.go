package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/go-redis/redis/v8"

	"picky/item"
)

// RedisStore persists item documents in Redis, the networked document-store
// backend. It uses a shared keyspace with a type discriminator: the document
// lives at item:<id> and ids are indexed per kind in items:type:<kind>.
type RedisStore struct {
	client *redis.Client
	addr   string
	db     int
}

// NewRedisStore connects and verifies the server is reachable. A connection
// or auth failure here is fatal by design: the store is never handed out
// half-configured.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis (%s): %w", addr, err)
	}
	return &RedisStore{client: client, addr: addr, db: db}, nil
}

func itemKey(id string) string {
	return "item:" + id
}

func kindKey(kind item.Kind) string {
	return "items:type:" + string(kind)
}

// classify wraps transport failures in ErrUnavailable so callers can tell a
// dead server apart from a bad operation.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return classify(s.client.Ping(ctx).Err())
}

func (s *RedisStore) List(ctx context.Context, kind item.Kind) ([]item.Doc, error) {
	ids, err := s.client.SMembers(ctx, kindKey(kind)).Result()
	if err != nil {
		return nil, classify(err)
	}
	if len(ids) == 0 {
		return []item.Doc{}, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, itemKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, classify(err)
	}
	docs := make([]item.Doc, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// deleted between SMembers and Get, a normal race
				continue
			}
			return nil, classify(err)
		}
		var doc item.Doc
		if err := json.Unmarshal([]byte(data), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *RedisStore) Get(ctx context.Context, kind item.Kind, id string) (item.Doc, error) {
	data, err := s.client.Get(ctx, itemKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, classify(err)
	}
	var doc item.Doc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, err
	}
	if doc[item.FieldType] != string(kind) {
		// shared keyspace: an id of another kind is not this kind's item
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *RedisStore) Put(ctx context.Context, kind item.Kind, id string, doc item.Doc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, itemKey(id), data, 0)
	pipe.SAdd(ctx, kindKey(kind), id)
	_, err = pipe.Exec(ctx)
	return classify(err)
}

func (s *RedisStore) Delete(ctx context.Context, kind item.Kind, id string) error {
	pipe := s.client.Pipeline()
	del := pipe.Del(ctx, itemKey(id))
	pipe.SRem(ctx, kindKey(kind), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return classify(err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Info() Info {
	return Info{Backend: "redis", Detail: fmt.Sprintf("%s/db%d", s.addr, s.db)}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
