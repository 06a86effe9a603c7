package client

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"appforge/internal/llm/tools"
	"appforge/internal/models"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(ProviderOpenAI, models.CodeGenHTML, nil, tools.NewRegistry(), t.TempDir(), 10, 50)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func TestSessionCache_ConcurrentMissBuildsOnce(t *testing.T) {
	var builds int64
	cache := NewSessionCache(func(ctx context.Context, key SessionKey) (*Session, error) {
		atomic.AddInt64(&builds, 1)
		// widen the race window so concurrent callers pile up
		time.Sleep(20 * time.Millisecond)
		return newTestSession(t), nil
	})

	key := SessionKey{AppID: 7, GenType: models.CodeGenHTML, Provider: ProviderOpenAI}

	const callers = 16
	sessions := make([]*Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := cache.Get(context.Background(), key)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt64(&builds); got != 1 {
		t.Fatalf("expected exactly one construction, got %d", got)
	}
	for i := 1; i < callers; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("caller %d got a different session instance", i)
		}
	}
}

func TestSessionCache_DistinctKeysGetDistinctSessions(t *testing.T) {
	cache := NewSessionCache(func(ctx context.Context, key SessionKey) (*Session, error) {
		return newTestSession(t), nil
	})

	a, err := cache.Get(context.Background(), SessionKey{AppID: 1, GenType: models.CodeGenHTML, Provider: ProviderOpenAI})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := cache.Get(context.Background(), SessionKey{AppID: 1, GenType: models.CodeGenHTML, Provider: ProviderClaude})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a == b {
		t.Fatalf("different providers must not share a session")
	}
	if cache.Len() != 2 {
		t.Fatalf("expected 2 cached sessions, got %d", cache.Len())
	}
}

func TestSessionCache_WriteTTLExpiresEntry(t *testing.T) {
	var builds int64
	cache := NewSessionCache(func(ctx context.Context, key SessionKey) (*Session, error) {
		atomic.AddInt64(&builds, 1)
		return newTestSession(t), nil
	})

	now := time.Now()
	cache.now = func() time.Time { return now }

	key := SessionKey{AppID: 3, GenType: models.CodeGenMultiFile, Provider: ProviderGemini}
	if _, err := cache.Get(context.Background(), key); err != nil {
		t.Fatalf("Get: %v", err)
	}

	// Constant access does not save an entry past the write TTL.
	for i := 0; i < 6; i++ {
		now = now.Add(5 * time.Minute)
		if _, err := cache.Get(context.Background(), key); err != nil {
			t.Fatalf("Get: %v", err)
		}
	}

	if got := atomic.LoadInt64(&builds); got != 2 {
		t.Fatalf("expected rebuild after write TTL, got %d constructions", got)
	}
}

func TestSessionCache_AccessTTLExpiresIdleEntry(t *testing.T) {
	var builds int64
	cache := NewSessionCache(func(ctx context.Context, key SessionKey) (*Session, error) {
		atomic.AddInt64(&builds, 1)
		return newTestSession(t), nil
	})

	now := time.Now()
	cache.now = func() time.Time { return now }

	key := SessionKey{AppID: 4, GenType: models.CodeGenHTML, Provider: ProviderDeepSeek}
	if _, err := cache.Get(context.Background(), key); err != nil {
		t.Fatalf("Get: %v", err)
	}

	now = now.Add(11 * time.Minute)
	if _, err := cache.Get(context.Background(), key); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got := atomic.LoadInt64(&builds); got != 2 {
		t.Fatalf("expected rebuild after idle TTL, got %d constructions", got)
	}
}

func TestSessionCache_SweepEvictsExpired(t *testing.T) {
	cache := NewSessionCache(func(ctx context.Context, key SessionKey) (*Session, error) {
		return newTestSession(t), nil
	})

	now := time.Now()
	cache.now = func() time.Time { return now }

	if _, err := cache.Get(context.Background(), SessionKey{AppID: 1, GenType: models.CodeGenHTML, Provider: ProviderOpenAI}); err != nil {
		t.Fatalf("Get: %v", err)
	}

	now = now.Add(31 * time.Minute)
	if n := cache.Sweep(); n != 1 {
		t.Fatalf("expected 1 eviction, got %d", n)
	}
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after sweep, got %d", cache.Len())
	}
}
