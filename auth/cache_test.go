package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jonwraymond/profilemcp/cache"
)

type countingProvider struct {
	calls atomic.Int32
	token string
	err   error
	delay time.Duration
}

func (p *countingProvider) Token(ctx context.Context) (string, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return p.token, p.err
}

func TestCachingTokenProvider_Reuses(t *testing.T) {
	inner := &countingProvider{token: "opaque"}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), time.Minute)

	for range 3 {
		token, err := p.Token(context.Background())
		if err != nil || token != "opaque" {
			t.Fatalf("Token() = %q, %v", token, err)
		}
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}
}

func TestCachingTokenProvider_ZeroTTLDisables(t *testing.T) {
	inner := &countingProvider{token: "opaque"}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), 0)

	for range 2 {
		_, _ = p.Token(context.Background())
	}
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner calls = %d, want 2", n)
	}
}

func TestCachingTokenProvider_ErrorsNotCached(t *testing.T) {
	inner := &countingProvider{err: &AuthenticationError{StatusCode: 401, Body: "no"}}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), time.Minute)

	for range 2 {
		if _, err := p.Token(context.Background()); !errors.Is(err, ErrAuthenticationFailed) {
			t.Fatalf("Token() error = %v", err)
		}
	}
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner calls = %d, want 2", n)
	}
}

func TestCachingTokenProvider_Invalidate(t *testing.T) {
	inner := &countingProvider{token: "opaque"}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), time.Minute)
	ctx := context.Background()

	_, _ = p.Token(ctx)
	p.Invalidate(ctx)
	_, _ = p.Token(ctx)

	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner calls = %d, want 2", n)
	}
}

func TestCachingTokenProvider_CoalescesMisses(t *testing.T) {
	inner := &countingProvider{token: "opaque", delay: 50 * time.Millisecond}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), time.Minute)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if token, err := p.Token(context.Background()); err != nil || token != "opaque" {
				t.Errorf("Token() = %q, %v", token, err)
			}
		}()
	}
	wg.Wait()

	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}
}

func TestCachingTokenProvider_CallerCancelDoesNotFailOthers(t *testing.T) {
	inner := &countingProvider{token: "opaque", delay: 200 * time.Millisecond}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), time.Minute)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := p.Token(leaderCtx)
		leaderErr <- err
	}()

	// let the first caller start the login before the second joins it
	for inner.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		token string
		err   error
	}
	follower := make(chan result, 1)
	go func() {
		token, err := p.Token(context.Background())
		follower <- result{token, err}
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	if err := <-leaderErr; !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled caller error = %v, want context.Canceled", err)
	}
	got := <-follower
	if got.err != nil || got.token != "opaque" {
		t.Fatalf("live caller Token() = %q, %v", got.token, got.err)
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls = %d, want 1", n)
	}

	// the detached login still populated the cache
	if token, err := p.Token(context.Background()); err != nil || token != "opaque" {
		t.Fatalf("Token() after cancel = %q, %v", token, err)
	}
	if n := inner.calls.Load(); n != 1 {
		t.Errorf("inner calls after cancel = %d, want 1", n)
	}
}

func TestCachingTokenProvider_LoginTimeout(t *testing.T) {
	inner := &countingProvider{token: "opaque", delay: time.Second}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), time.Minute)
	p.loginTimeout = 20 * time.Millisecond

	if _, err := p.Token(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Token() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestCachingTokenProvider_TTLBoundedByExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name string
		exp  time.Time
		ttl  time.Duration
		want time.Duration
	}{
		{"exp later than ttl", now.Add(time.Hour), time.Minute, time.Minute},
		{"exp sooner than ttl", now.Add(2 * time.Minute), time.Hour, 90 * time.Second},
		{"exp within skew", now.Add(10 * time.Second), time.Hour, -20 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewCachingTokenProvider(nil, cache.NewMemoryCache(), tt.ttl)
			p.now = func() time.Time { return now }

			token := signedJWT(t, jwt.MapClaims{"exp": tt.exp.Unix()})
			if got := p.ttlFor(token); got != tt.want {
				t.Errorf("ttlFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCachingTokenProvider_ExpiredJWTNotReused(t *testing.T) {
	token := signedJWT(t, jwt.MapClaims{"exp": time.Now().Add(5 * time.Second).Unix()})
	inner := &countingProvider{token: token}
	p := NewCachingTokenProvider(inner, cache.NewMemoryCache(), time.Hour)

	for range 2 {
		_, _ = p.Token(context.Background())
	}
	if n := inner.calls.Load(); n != 2 {
		t.Errorf("inner calls = %d, want 2", n)
	}
}
