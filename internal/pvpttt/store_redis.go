package pvpttt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ttlSession       = 24 * time.Hour
	maxUpdateRetries = 5
)

// RedisStore shares the channel registry between bot processes.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore dials redisURL (redis://host:port/db) and pings it.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb), nil
}

func NewRedisStoreFromClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttlSession}
}

func sessionKey(channel string) string { return "ttt:session:" + strings.TrimSpace(channel) }
func channelIndexKey() string          { return "ttt:channels" }

func (s *RedisStore) Claim(ctx context.Context, sess *Session) error {
	if sess == nil || strings.TrimSpace(sess.Channel) == "" {
		return ErrInvalidArgs
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, sessionKey(sess.Channel), raw, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrGameInProgress
	}
	if err := s.rdb.SAdd(ctx, channelIndexKey(), sess.Channel).Err(); err != nil {
		// an unindexed claim would hold the channel until the TTL expires
		if delErr := s.rdb.Del(ctx, sessionKey(sess.Channel)).Err(); delErr != nil {
			return errors.Join(fmt.Errorf("index channel: %w", err), fmt.Errorf("roll back claim: %w", delErr))
		}
		return fmt.Errorf("index channel: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, channel string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(channel)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoGame
	}
	if err != nil {
		return nil, err
	}
	return decodeSession(raw)
}

func (s *RedisStore) Update(ctx context.Context, channel string, fn func(*Session) error) (*Session, error) {
	key := sessionKey(channel)
	var out *Session
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNoGame
		}
		if err != nil {
			return err
		}
		cur, err := decodeSession(raw)
		if err != nil {
			return err
		}
		if err := fn(cur); err != nil {
			return err
		}
		next, err := json.Marshal(cur)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		if err == nil {
			out = cur
		}
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("update %s: %w", key, redis.TxFailedErr)
}

func (s *RedisStore) Release(ctx context.Context, channel string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(channel))
	pipe.SRem(ctx, channelIndexKey(), strings.TrimSpace(channel))
	_, err := pipe.Exec(ctx)
	return err
}

// Channels lists channels with a live session, pruning index entries whose key expired.
func (s *RedisStore) Channels(ctx context.Context) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, channelIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(members))
	for _, ch := range members {
		n, err := s.rdb.Exists(ctx, sessionKey(ch)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			_ = s.rdb.SRem(ctx, channelIndexKey(), ch).Err()
			continue
		}
		out = append(out, ch)
	}
	sort.Strings(out)
	return out, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func decodeSession(raw []byte) (*Session, error) {
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if sess.Game == nil {
		return nil, fmt.Errorf("decode session: missing game state")
	}
	return &sess, nil
}
