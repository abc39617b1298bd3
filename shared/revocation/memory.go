package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local Store. Expired entries are swept on write.
type Memory struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (s *Memory) Revoke(ctx context.Context, tokenId string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, until := range s.revoked {
		if !now.Before(until) {
			delete(s.revoked, id)
		}
	}

	until := now.Add(ttl)
	if existing, ok := s.revoked[tokenId]; ok && existing.After(until) {
		return nil
	}
	s.revoked[tokenId] = until
	return nil
}

func (s *Memory) IsRevoked(ctx context.Context, tokenId string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.revoked[tokenId]
	if !ok {
		return false, nil
	}
	return s.now().Before(until), nil
}

// Len reports the number of entries, expired ones included until the next sweep.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.revoked)
}
