package revocation

import (
	"context"
	"sync"
	"time"

	"pet-care-api/internal/ports/auth"
)

// MemoryStore es el fallback sin Redis (dev/tests). No se comparte entre réplicas.
type MemoryStore struct {
	mu       sync.Mutex
	tokens   map[string]time.Time // tokenID -> expiración de la marca
	subjects map[string]subjectMark
	now      func() time.Time
}

type subjectMark struct {
	since     time.Time
	expiresAt time.Time
}

var _ auth.RevocationStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens:   map[string]time.Time{},
		subjects: map[string]subjectMark{},
		now:      time.Now,
	}
}

func (m *MemoryStore) RevokeToken(ctx context.Context, tokenID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	if !until.After(m.now()) {
		return nil
	}
	m.tokens[tokenID] = until
	return nil
}

func (m *MemoryStore) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	_, ok := m.tokens[tokenID]
	return ok, nil
}

func (m *MemoryStore) RevokeSubject(ctx context.Context, userID string, since time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()

	since = time.UnixMilli(since.UnixMilli())
	if cur, ok := m.subjects[userID]; ok && cur.since.After(since) {
		since = cur.since
	}
	m.subjects[userID] = subjectMark{since: since, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryStore) SubjectRevokedSince(ctx context.Context, userID string) (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
	mark, ok := m.subjects[userID]
	if !ok {
		return time.Time{}, false, nil
	}
	return mark.since, true, nil
}

func (m *MemoryStore) cleanupLocked() {
	now := m.now()
	for k, exp := range m.tokens {
		if !exp.After(now) {
			delete(m.tokens, k)
		}
	}
	for k, mark := range m.subjects {
		if !mark.expiresAt.After(now) {
			delete(m.subjects, k)
		}
	}
}
