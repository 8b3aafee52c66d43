package auth

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/profilemcp/cache"
)

const tokenCacheKey = "auth:token"

// DefaultExpirySkew is subtracted from a JWT's exp claim before it bounds
// the cache TTL.
const DefaultExpirySkew = 30 * time.Second

// DefaultLoginTimeout bounds a shared login once it is detached from the
// caller that started it.
const DefaultLoginTimeout = 30 * time.Second

// Invalidator is implemented by providers that can drop a reused token.
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// CachingTokenProvider reuses tokens from an inner provider for a bounded
// window. The window is ttl, shortened to the token's own exp claim (minus
// DefaultExpirySkew) when the token is a JWT. Concurrent misses share one
// inner call that no single caller can cancel; each caller still stops
// waiting when its own context ends. Errors are never cached.
type CachingTokenProvider struct {
	inner        TokenProvider
	cache        cache.Cache
	ttl          time.Duration
	loginTimeout time.Duration
	now          func() time.Time
	group        singleflight.Group
}

// NewCachingTokenProvider wraps inner. A ttl <= 0 disables reuse.
func NewCachingTokenProvider(inner TokenProvider, c cache.Cache, ttl time.Duration) *CachingTokenProvider {
	return &CachingTokenProvider{
		inner: inner,
		cache: c,
		ttl:          ttl,
		loginTimeout: DefaultLoginTimeout,
		now:          time.Now,
	}
}

// Token returns a cached token or fetches a new one.
func (p *CachingTokenProvider) Token(ctx context.Context) (string, error) {
	if cached, ok := p.cache.Get(ctx, tokenCacheKey); ok {
		return string(cached), nil
	}

	ch := p.group.DoChan(tokenCacheKey, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.loginTimeout)
		defer cancel()

		if cached, ok := p.cache.Get(lctx, tokenCacheKey); ok {
			return string(cached), nil
		}
		token, err := p.inner.Token(lctx)
		if err != nil {
			return "", err
		}
		_ = p.cache.Set(lctx, tokenCacheKey, []byte(token), p.ttlFor(token))
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops the cached token so the next call logs in again.
func (p *CachingTokenProvider) Invalidate(ctx context.Context) {
	_ = p.cache.Delete(ctx, tokenCacheKey)
}

func (p *CachingTokenProvider) ttlFor(token string) time.Duration {
	ttl := p.ttl
	if exp, ok := TokenExpiry(token); ok {
		if remaining := exp.Sub(p.now()) - DefaultExpirySkew; remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

var (
	_ TokenProvider = (*CachingTokenProvider)(nil)
	_ Invalidator   = (*CachingTokenProvider)(nil)
)
