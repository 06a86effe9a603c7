package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"appforge/internal/models"
)

const (
	// sessionWriteTTL evicts sessions a fixed time after construction.
	sessionWriteTTL = 30 * time.Minute
	// sessionAccessTTL evicts sessions that have been idle.
	sessionAccessTTL = 10 * time.Minute
)

// SessionKey identifies one cached session.
type SessionKey struct {
	AppID    uint
	GenType  models.CodeGenType
	Provider Provider
}

func (k SessionKey) String() string {
	return fmt.Sprintf("%d|%s|%s", k.AppID, k.GenType, k.Provider)
}

// BuilderFunc constructs a session for a cache miss.
type BuilderFunc func(ctx context.Context, key SessionKey) (*Session, error)

type cacheEntry struct {
	session    *Session
	createdAt  time.Time
	lastAccess time.Time
}

// SessionCache keeps live sessions keyed by app, mode and provider.
// Concurrent misses for the same key construct exactly one session; expired
// entries are rebuilt on the next access or swept by the janitor.
type SessionCache struct {
	build BuilderFunc
	now   func() time.Time

	mu      sync.Mutex
	entries map[SessionKey]*cacheEntry
	group   singleflight.Group
}

func NewSessionCache(build BuilderFunc) *SessionCache {
	return &SessionCache{
		build:   build,
		now:     time.Now,
		entries: make(map[SessionKey]*cacheEntry),
	}
}

// Get returns the cached session for key, constructing it if absent or
// expired. Under a concurrent miss only one construction runs; the other
// callers share its result.
func (c *SessionCache) Get(ctx context.Context, key SessionKey) (*Session, error) {
	if s := c.lookup(key); s != nil {
		return s, nil
	}

	v, err, _ := c.group.Do(key.String(), func() (interface{}, error) {
		// A concurrent winner may have populated the entry already.
		if s := c.lookup(key); s != nil {
			return s, nil
		}
		s, err := c.build(ctx, key)
		if err != nil {
			return nil, err
		}
		now := c.now()
		c.mu.Lock()
		c.entries[key] = &cacheEntry{session: s, createdAt: now, lastAccess: now}
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

// lookup returns a live session and touches it, evicting it when expired.
func (c *SessionCache) lookup(key SessionKey) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if c.expired(e) {
		delete(c.entries, key)
		e.session.Close()
		return nil
	}
	e.lastAccess = c.now()
	return e.session
}

func (c *SessionCache) expired(e *cacheEntry) bool {
	now := c.now()
	return now.Sub(e.createdAt) >= sessionWriteTTL || now.Sub(e.lastAccess) >= sessionAccessTTL
}

// Invalidate drops a session regardless of age.
func (c *SessionCache) Invalidate(key SessionKey) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	if ok {
		e.session.Close()
	}
}

// Len reports the number of cached sessions, expired or not.
func (c *SessionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep evicts all expired sessions and returns how many were removed.
func (c *SessionCache) Sweep() int {
	c.mu.Lock()
	var victims []*cacheEntry
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			victims = append(victims, e)
		}
	}
	c.mu.Unlock()

	for _, e := range victims {
		e.session.Close()
	}
	return len(victims)
}

// StartJanitor sweeps periodically until ctx is canceled.
func (c *SessionCache) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					log.Debug().Int("evicted", n).Msg("session cache sweep")
				}
			}
		}
	}()
}
