// Package services provides external service integrations and technical concerns like nonces and tokens
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Nonce service error constants
var (
	ErrNonceInvalid      = errors.New("invalid or expired nonce")
	ErrCacheNotAvailable = errors.New("cache is not available")
)

// NonceService issues request nonces for the public gate endpoints. A nonce is
// reusable until its TTL expires, so a client fetches one and attaches it to
// the submit call and every tracking beacon that follows.
type NonceService interface {
	Issue(ctx context.Context) (string, error)
	Verify(ctx context.Context, nonce string) error
}

// NonceServiceImpl implements NonceService on Redis
type NonceServiceImpl struct {
	rc        *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewNonceService creates a new nonce service
func NewNonceService(rc *redis.Client, keyPrefix string, ttl time.Duration) NonceService {
	return &NonceServiceImpl{
		rc:        rc,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Issue creates a fresh nonce and stores it with the configured TTL
func (s *NonceServiceImpl) Issue(ctx context.Context) (string, error) {
	if s.rc == nil {
		return "", ErrCacheNotAvailable
	}

	nonce := uuid.New().String()
	if err := s.rc.Set(ctx, s.key(nonce), "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store nonce: %w", err)
	}

	return nonce, nil
}

// Verify checks that the nonce exists and has not expired. The nonce is left
// in place for reuse within its window.
func (s *NonceServiceImpl) Verify(ctx context.Context, nonce string) error {
	if s.rc == nil {
		return ErrCacheNotAvailable
	}
	if nonce == "" {
		return ErrNonceInvalid
	}

	_, err := s.rc.Get(ctx, s.key(nonce)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNonceInvalid
		}
		return fmt.Errorf("failed to look up nonce: %w", err)
	}

	return nil
}

func (s *NonceServiceImpl) key(nonce string) string {
	return s.keyPrefix + ":nonce:" + nonce
}
