package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"commerce-agent/internal/domain"
)

// sessionStore is the store surface the cache sits in front of.
type sessionStore interface {
	Load(ctx context.Context, customerID string) (*domain.ConversationSession, error)
	Save(ctx context.Context, session *domain.ConversationSession) error
}

// SessionCache is a cache-aside layer over a durable session store. The
// durable record stays the source of truth: a warm process serves reads from
// the cache, but a save still carries the version condition, and a conflict
// evicts the entry so the retry reload goes to the store. Entries also expire
// after a short interval since another worker instance may have advanced the
// session without this process seeing it.
type SessionCache struct {
	inner  sessionStore
	maxAge time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	session  *domain.ConversationSession
	cachedAt time.Time
}

// NewSessionCache wraps inner with a per-process cache. maxAge bounds how
// stale a cached read may be before falling through to the store.
func NewSessionCache(inner sessionStore, maxAge time.Duration) (*SessionCache, error) {
	if inner == nil {
		return nil, errors.New("repository: inner store must not be nil")
	}
	if maxAge <= 0 {
		maxAge = 30 * time.Second
	}
	return &SessionCache{
		inner:   inner,
		maxAge:  maxAge,
		entries: make(map[string]cacheEntry),
	}, nil
}

func (c *SessionCache) Load(ctx context.Context, customerID string) (*domain.ConversationSession, error) {
	c.mu.Lock()
	entry, ok := c.entries[customerID]
	c.mu.Unlock()
	if ok && time.Since(entry.cachedAt) < c.maxAge {
		return entry.session.Clone(), nil
	}

	session, err := c.inner.Load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	c.put(customerID, session)
	return session, nil
}

func (c *SessionCache) Save(ctx context.Context, session *domain.ConversationSession) error {
	err := c.inner.Save(ctx, session)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			c.evict(session.CustomerID)
		}
		return err
	}
	c.put(session.CustomerID, session)
	return nil
}

func (c *SessionCache) put(customerID string, session *domain.ConversationSession) {
	c.mu.Lock()
	c.entries[customerID] = cacheEntry{session: session.Clone(), cachedAt: time.Now()}
	c.mu.Unlock()
}

func (c *SessionCache) evict(customerID string) {
	c.mu.Lock()
	delete(c.entries, customerID)
	c.mu.Unlock()
}
