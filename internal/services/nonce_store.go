// internal/services/nonce_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/javajoker/licensechain/internal/utils"
)

var ErrNonceNotFound = errors.New("sign-in nonce not found or expired")

// NonceStore holds one outstanding sign-in nonce per wallet. Take is
// single-use: a nonce is gone after the first read.
type NonceStore interface {
	Put(ctx context.Context, address, nonce string, ttl time.Duration) error
	Take(ctx context.Context, address string) (string, error)
}

type pendingNonce struct {
	value     string
	expiresAt time.Time
}

// MemoryNonceStore keeps nonces in process. Enough for a single instance.
type MemoryNonceStore struct {
	mu     sync.Mutex
	nonces map[string]pendingNonce
	now    func() time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		nonces: make(map[string]pendingNonce),
		now:    time.Now,
	}
}

func (s *MemoryNonceStore) Put(_ context.Context, address, nonce string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[utils.NormalizeAddress(address)] = pendingNonce{value: nonce, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemoryNonceStore) Take(_ context.Context, address string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := utils.NormalizeAddress(address)
	p, ok := s.nonces[key]
	delete(s.nonces, key)
	if !ok || !s.now().Before(p.expiresAt) {
		return "", ErrNonceNotFound
	}
	return p.value, nil
}

// Run drops expired nonces every minute until ctx is done.
func (s *MemoryNonceStore) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.DeleteExpired()
		}
	}
}

// DeleteExpired removes every nonce past its deadline and reports how many.
func (s *MemoryNonceStore) DeleteExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for addr, p := range s.nonces {
		if !now.Before(p.expiresAt) {
			delete(s.nonces, addr)
			n++
		}
	}
	return n
}

const nonceKeyPrefix = "licensechain:nonce:"

// RedisNonceStore shares nonces between instances. Expiry is left to Redis.
type RedisNonceStore struct {
	client *redis.Client
}

func NewRedisNonceStore(client *redis.Client) *RedisNonceStore {
	return &RedisNonceStore{client: client}
}

func (s *RedisNonceStore) Put(ctx context.Context, address, nonce string, ttl time.Duration) error {
	if err := s.client.Set(ctx, nonceKeyPrefix+utils.NormalizeAddress(address), nonce, ttl).Err(); err != nil {
		return fmt.Errorf("store nonce: %w", err)
	}
	return nil
}

func (s *RedisNonceStore) Take(ctx context.Context, address string) (string, error) {
	nonce, err := s.client.GetDel(ctx, nonceKeyPrefix+utils.NormalizeAddress(address)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNonceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("take nonce: %w", err)
	}
	return nonce, nil
}
