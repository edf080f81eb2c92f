package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/phenrril/tryon/internal/domain"
)

const (
	keyPrefix = "tryon:session:"
	// updateAttempts bounds optimistic retries when a watched key changes.
	updateAttempts = 5
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (st *RedisStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	b, err := st.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var s domain.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (st *RedisStore) Save(ctx context.Context, s *domain.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := st.client.Set(ctx, keyPrefix+s.ID, b, st.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

// Update runs fn inside WATCH/MULTI so a concurrent write to the same
// session aborts the transaction; fn then runs again on the fresh value.
func (st *RedisStore) Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error) {
	key := keyPrefix + id
	var out *domain.Session
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("redis get session: %w", err)
		}
		var s domain.Session
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode session: %w", err)
		}
		if err := fn(&s); err != nil {
			return err
		}
		nb, err := json.Marshal(&s)
		if err != nil {
			return fmt.Errorf("encode session: %w", err)
		}
		if _, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, nb, st.ttl)
			return nil
		}); err != nil {
			return err
		}
		out = &s
		return nil
	}
	for i := 0; i < updateAttempts; i++ {
		err := st.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("redis update session %s: %w", id, redis.TxFailedErr)
}

func (st *RedisStore) Delete(ctx context.Context, id string) error {
	if err := st.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

func (st *RedisStore) Close() error { return st.client.Close() }
