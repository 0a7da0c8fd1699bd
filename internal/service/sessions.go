package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const RedisKeyPrefix = "auditorium:auth:refresh:"

var errRefreshUnknown = errors.New("refresh token not on the allow-list")

// RefreshStore is the allow-list of live refresh tokens. Consume removes a
// token atomically so a rotated token can never be replayed.
type RefreshStore interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	Consume(ctx context.Context, token string) (string, error)
	RevokeUser(ctx context.Context, userID string) error
}

type memoryRefresh struct {
	userID  string
	expires time.Time
}

type MemoryRefreshStore struct {
	mu     sync.Mutex
	now    func() time.Time
	tokens map[string]memoryRefresh
}

func NewMemoryRefreshStore(now func() time.Time) *MemoryRefreshStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryRefreshStore{now: now, tokens: make(map[string]memoryRefresh)}
}

func (s *MemoryRefreshStore) Put(_ context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = memoryRefresh{userID: userID, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryRefreshStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.tokens[token]
	if !ok {
		return "", errRefreshUnknown
	}
	delete(s.tokens, token)
	if !s.now().Before(rt.expires) {
		return "", errRefreshUnknown
	}
	return rt.userID, nil
}

func (s *MemoryRefreshStore) RevokeUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, rt := range s.tokens {
		if rt.userID == userID {
			delete(s.tokens, token)
		}
	}
	return nil
}

// RedisRefreshStore keeps the allow-list in redis: one key per token holding
// the user id, plus a per-user set for revocation.
type RedisRefreshStore struct {
	rdb redis.Cmdable
}

func NewRedisRefreshStore(rdb redis.Cmdable) *RedisRefreshStore {
	return &RedisRefreshStore{rdb: rdb}
}

func userSetKey(userID string) string {
	return RedisKeyPrefix + "user:" + userID
}

func (s *RedisRefreshStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, RedisKeyPrefix+token, userID, ttl)
	pipe.SAdd(ctx, userSetKey(userID), token)
	pipe.Expire(ctx, userSetKey(userID), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisRefreshStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.rdb.GetDel(ctx, RedisKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", errRefreshUnknown
	}
	if err != nil {
		return "", err
	}
	s.rdb.SRem(ctx, userSetKey(userID), token)
	return userID, nil
}

func (s *RedisRefreshStore) RevokeUser(ctx context.Context, userID string) error {
	tokens, err := s.rdb.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, RedisKeyPrefix+t)
	}
	keys = append(keys, userSetKey(userID))
	return s.rdb.Del(ctx, keys...).Err()
}
