package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/corpdesk/employee-portal/internal/auth"
	"github.com/corpdesk/employee-portal/internal/config"
	"github.com/corpdesk/employee-portal/internal/docstore"
	"github.com/corpdesk/employee-portal/internal/domain"
	"github.com/corpdesk/employee-portal/internal/events"
	"github.com/corpdesk/employee-portal/internal/repository"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
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

// failingStore injects errors into selected document store calls.
type failingStore struct {
	docstore.Store
	putErr    error
	queryErr  error
	deleteErr error
}

func (f *failingStore) Put(ctx context.Context, collection, key string, doc docstore.Document, merge bool) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, collection, key, doc, merge)
}

func (f *failingStore) QueryWhere(ctx context.Context, collection, field string, value any) ([]docstore.Document, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.Store.QueryWhere(ctx, collection, field, value)
}

func (f *failingStore) Delete(ctx context.Context, collection, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, collection, key)
}

// failingProvider injects an error into account deletion.
type failingProvider struct {
	auth.Provider
	deleteErr error
}

func (f *failingProvider) DeleteAccount(ctx context.Context, sess *domain.Session) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Provider.DeleteAccount(ctx, sess)
}

type fixture struct {
	svc        *IdentitySync
	provider   *auth.LocalProvider
	memory     *docstore.MemoryStore
	store      *failingStore
	dispatcher events.Dispatcher
	clock      *testClock
	redis      *miniredis.Miniredis
}

// failingSessionStore injects an error into session revocation.
type failingSessionStore struct {
	auth.SessionStore
	revokeErr error
}

func (f *failingSessionStore) DeleteAllForUser(ctx context.Context, uid string) error {
	if f.revokeErr != nil {
		return f.revokeErr
	}
	return f.SessionStore.DeleteAllForUser(ctx, uid)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithSessions(t, nil)
}

// newFixtureWithSessions lets wrap replace the Redis session store handed to the provider.
func newFixtureWithSessions(t *testing.T, wrap func(auth.SessionStore) auth.SessionStore) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var sessions auth.SessionStore = auth.NewRedisSessionStore(client)
	if wrap != nil {
		sessions = wrap(sessions)
	}

	clock := &testClock{now: time.Now().UTC()}
	provider := auth.NewLocalProvider(config.AuthConfig{
		JWTSecret:          "test-secret",
		SessionTTLMinutes:  60,
		RecentLoginMinutes: 5,
		BcryptCost:         bcrypt.MinCost,
		MinPasswordLength:  6,
		SignInMaxFailures:  5,
	}, repository.NewMemoryAccountRepository(), sessions, auth.WithClock(clock.Now))
	t.Cleanup(provider.Close)

	memory := docstore.NewMemoryStore()
	store := &failingStore{Store: memory}
	dispatcher := events.NewInMemoryDispatcher()

	svc := NewIdentitySync(IdentityDependencies{
		Provider:   provider,
		Store:      store,
		Dispatcher: dispatcher,
	})
	require.NoError(t, svc.Init(context.Background()))

	return &fixture{
		svc:        svc,
		provider:   provider,
		memory:     memory,
		store:      store,
		dispatcher: dispatcher,
		clock:      clock,
		redis:      mr,
	}
}

func (f *fixture) register(t *testing.T, name, email, password, empID string) *AuthResult {
	t.Helper()

	result, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: password,
		EmpID:    empID,
	})
	require.NoError(t, err)
	return result
}

func strPtr(s string) *string {
	return &s
}
