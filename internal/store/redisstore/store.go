// Package redisstore keeps chat sessions in Redis so several server
// processes can share them.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suPer8Hu/calmchat/internal/chat"
)

const keyPrefix = "calmchat:session:"

// maxTxRetries bounds optimistic retries when another writer touches the
// same session between WATCH and EXEC.
const maxTxRetries = 16

type Store struct {
	rdb   *redis.Client
	limit int
	ttl   time.Duration
}

// New wraps rdb. ttl <= 0 keeps sessions until Redis evicts them.
func New(rdb *redis.Client, limit int, ttl time.Duration) *Store {
	if limit <= 0 {
		limit = chat.DefaultHistoryTurns
	}
	return &Store{rdb: rdb, limit: limit, ttl: ttl}
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func key(sessionID string) string { return keyPrefix + sessionID }

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Ensure(ctx context.Context, sessionID string, seed []chat.Turn) (bool, error) {
	b, err := json.Marshal(chat.CapHistory(seed, s.limit))
	if err != nil {
		return false, err
	}
	ok, err := s.rdb.SetNX(ctx, key(sessionID), b, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis ensure: %w", err)
	}
	return ok, nil
}

func (s *Store) Append(ctx context.Context, sessionID string, turn chat.Turn) error {
	k := key(sessionID)
	txf := func(tx *redis.Tx) error {
		turns, err := load(ctx, tx, k)
		if err != nil {
			return err
		}
		b, err := json.Marshal(chat.CapHistory(append(turns, turn), s.limit))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, b, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, chat.ErrSessionNotFound) {
			return fmt.Errorf("redis append: %w", err)
		}
		return err
	}
	return fmt.Errorf("redis append: %w", redis.TxFailedErr)
}

func (s *Store) History(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	return load(ctx, s.rdb, key(sessionID))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, k string) ([]chat.Turn, error) {
	b, err := c.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, chat.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var turns []chat.Turn
	if err := json.Unmarshal(b, &turns); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", k, err)
	}
	return turns, nil
}
