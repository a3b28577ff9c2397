package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Credential is the canonical persisted record for one browser session:
// the raw bearer token plus its declared expiry. Every collaborator reads
// and writes session state through this single schema; the Manager is the
// only writer.
type Credential struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore persists credentials across gateway restarts. Load reports
// absence explicitly instead of returning an error, and Clear is
// idempotent.
type TokenStore interface {
	Save(ctx context.Context, sessionID string, cred Credential) error
	Load(ctx context.Context, sessionID string) (Credential, bool, error)
	Clear(ctx context.Context, sessionID string) error
}

const storeKeyPrefix = "session:"

// RedisStore backs the token store with Redis. Records carry a TTL matching
// the credential expiry so abandoned sessions age out on their own.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps a connected redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func storeKey(sessionID string) string {
	return storeKeyPrefix + sessionID
}

// Save persists the credential, overwriting any previous value.
func (s *RedisStore) Save(ctx context.Context, sessionID string, cred Credential) error {
	payload, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	ttl := time.Until(cred.ExpiresAt)
	if ttl <= 0 {
		return errors.New("credential already expired")
	}
	if err := s.client.Set(ctx, storeKey(sessionID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// Load returns the persisted credential, or absent when no record exists.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (Credential, bool, error) {
	raw, err := s.client.Get(ctx, storeKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Credential{}, false, nil
		}
		return Credential{}, false, fmt.Errorf("load credential: %w", err)
	}
	var cred Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		// A corrupt record is treated the same as a missing one.
		return Credential{}, false, nil
	}
	return cred, true, nil
}

// Clear removes the persisted credential. Removing a missing key is not an
// error.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, storeKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

// MemoryStore is an in-process token store used by tests and single-node
// development setups.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]Credential
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]Credential)}
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[sessionID] = cred
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[sessionID]
	return cred, ok, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, sessionID)
	return nil
}
