package repository

import (
	"context"
	"sync"
	"time"

	"commerce-agent/internal/domain"
)

// MemoryStore is an in-process implementation of the session store, delivery
// deduper and audit sink with the same semantics as the DynamoDB Store. The
// simulator runs the engine against it; tests use it to exercise the
// optimistic-concurrency paths without AWS.
type MemoryStore struct {
	mu         sync.Mutex
	sessions   map[string]*domain.ConversationSession
	deliveries map[string]time.Time
	audit      []domain.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:   make(map[string]*domain.ConversationSession),
		deliveries: make(map[string]time.Time),
	}
}

func (m *MemoryStore) Load(_ context.Context, customerID string) (*domain.ConversationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[customerID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, session *domain.ConversationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.sessions[session.CustomerID]
	if session.Version == 0 {
		if exists {
			return domain.ErrVersionConflict
		}
	} else if !exists || current.Version != session.Version {
		return domain.ErrVersionConflict
	}
	session.Version++
	m.sessions[session.CustomerID] = session.Clone()
	return nil
}

func (m *MemoryStore) Mark(_ context.Context, deliveryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seen, ok := m.deliveries[deliveryID]; ok && time.Since(seen) < deliveryWindow {
		return false, nil
	}
	m.deliveries[deliveryID] = time.Now()
	return true, nil
}

func (m *MemoryStore) Append(_ context.Context, entry domain.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	return nil
}

// AuditLog returns a copy of the appended entries, oldest first.
func (m *MemoryStore) AuditLog() []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.audit...)
}
