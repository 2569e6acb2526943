package auth

import (
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/corpdesk/employee-portal/internal/config"
	"github.com/corpdesk/employee-portal/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now().UTC()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                  "test-secret",
		SessionTTLMinutes:          60,
		RecentLoginMinutes:         5,
		BcryptCost:                 bcrypt.MinCost,
		MinPasswordLength:          6,
		SignInMaxFailures:          3,
		SignInFailureWindowMinutes: 15,
	}
}

func newTestProvider(t *testing.T) (*LocalProvider, *testClock, *miniredis.Miniredis) {
	t.Helper()

	mr, client := newTestRedis(t)
	clock := newTestClock()
	provider := NewLocalProvider(testAuthConfig(), repository.NewMemoryAccountRepository(),
		NewRedisSessionStore(client), WithClock(clock.Now))
	t.Cleanup(provider.Close)
	return provider, clock, mr
}
