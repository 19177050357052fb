package token

import (
	"context"
	"sync"
	"time"
)

// Registry records revoked session tokens. Revoke must complete before a
// logout is acknowledged, and re-revoking the same token is a no-op success:
// a client retrying a logout is a normal case, not a fault. Entries whose
// token has expired can never matter again and are safe to prune.
type Registry interface {
	Revoke(ctx context.Context, tokenString string, revokedAt, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenString string) (bool, error)
}

type revocationEntry struct {
	revokedAt time.Time
	expiresAt time.Time
}

// InMemoryRegistry is a simple in-memory Registry for tests and single
// process deployments.
type InMemoryRegistry struct {
	revoked map[string]revocationEntry
	mu      sync.RWMutex
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		revoked: make(map[string]revocationEntry),
	}
}

func (r *InMemoryRegistry) Revoke(_ context.Context, tokenString string, revokedAt, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.revoked[tokenString]; exists {
		return nil
	}
	r.revoked[tokenString] = revocationEntry{revokedAt: revokedAt, expiresAt: expiresAt}
	return nil
}

func (r *InMemoryRegistry) IsRevoked(_ context.Context, tokenString string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.revoked[tokenString]
	return exists, nil
}

// Cleanup drops entries whose token expired before now. An expired token is
// rejected by the codec regardless of revocation state.
func (r *InMemoryRegistry) Cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for tokenString, entry := range r.revoked {
		if now.After(entry.expiresAt) {
			delete(r.revoked, tokenString)
		}
	}
}

// Len reports the number of live revocation entries.
func (r *InMemoryRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.revoked)
}
