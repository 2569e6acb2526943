package auth

import (
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// SignInThrottle counts failed sign-ins per email inside a sliding window.
type SignInThrottle struct {
	failures    *ttlcache.Cache[string, int]
	maxFailures int
	window      time.Duration
}

// NewSignInThrottle returns a throttle; maxFailures <= 0 disables it.
func NewSignInThrottle(maxFailures int, window time.Duration) *SignInThrottle {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, int](window),
		ttlcache.WithDisableTouchOnHit[string, int](),
	)
	go cache.Start()

	return &SignInThrottle{failures: cache, maxFailures: maxFailures, window: window}
}

// Allow returns ErrTooManyAttempts once the email has used up its failures.
func (t *SignInThrottle) Allow(email string) error {
	if t == nil || t.maxFailures <= 0 {
		return nil
	}
	if item := t.failures.Get(throttleKey(email)); item != nil && item.Value() >= t.maxFailures {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure counts one failed attempt.
func (t *SignInThrottle) RecordFailure(email string) {
	if t == nil || t.maxFailures <= 0 {
		return
	}
	key := throttleKey(email)
	count := 1
	if item := t.failures.Get(key); item != nil {
		count = item.Value() + 1
	}
	t.failures.Set(key, count, t.window)
}

// Reset forgets failures after a successful sign-in.
func (t *SignInThrottle) Reset(email string) {
	if t == nil {
		return
	}
	t.failures.Delete(throttleKey(email))
}

// Close stops the expiry goroutine.
func (t *SignInThrottle) Close() {
	if t == nil {
		return
	}
	t.failures.Stop()
}

func throttleKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
