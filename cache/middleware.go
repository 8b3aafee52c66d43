package cache

import (
	"context"
	"slices"
	"strings"
)

// ExecutorFunc runs one tool call. storable reports whether the returned
// bytes may be served to later callers; failures and error values must
// return false.
type ExecutorFunc func(ctx context.Context, tool string, input any) (out []byte, storable bool, err error)

// SkipRule reports whether a tool must bypass the cache.
type SkipRule func(tool string, tags []string) bool

// UnsafeTags mark tools with side effects.
var UnsafeTags = []string{"write", "danger", "unsafe", "mutation", "delete"}

// DefaultSkipRule skips tools carrying any UnsafeTags entry, case-insensitively.
func DefaultSkipRule(_ string, tags []string) bool {
	return slices.ContainsFunc(tags, func(tag string) bool {
		return slices.Contains(UnsafeTags, strings.ToLower(tag))
	})
}

// CacheMiddleware serves repeated read-only tool calls from a Cache.
type CacheMiddleware struct {
	cache    Cache
	keyer    Keyer
	policy   Policy
	skipRule SkipRule
}

// NewCacheMiddleware builds a middleware. Nil keyer and skipRule fall back
// to DefaultKeyer and DefaultSkipRule.
func NewCacheMiddleware(c Cache, keyer Keyer, policy Policy, skipRule SkipRule) *CacheMiddleware {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if skipRule == nil {
		skipRule = DefaultSkipRule
	}
	return &CacheMiddleware{cache: c, keyer: keyer, policy: policy, skipRule: skipRule}
}

// Execute returns a cached result when present; otherwise it runs exec and
// stores the output if exec marked it storable. The returned bool is true
// on a cache hit.
func (m *CacheMiddleware) Execute(
	ctx context.Context,
	tool string,
	input any,
	tags []string,
	exec ExecutorFunc,
) ([]byte, bool, error) {
	if m.cache == nil || !m.policy.Enabled() || (!m.policy.AllowUnsafe && m.skipRule(tool, tags)) {
		out, _, err := exec(ctx, tool, input)
		return out, false, err
	}

	key, err := m.keyer.Key(tool, input)
	if err != nil {
		out, _, err := exec(ctx, tool, input)
		return out, false, err
	}

	if cached, ok := m.cache.Get(ctx, key); ok {
		return cached, true, nil
	}

	out, storable, err := exec(ctx, tool, input)
	if err != nil || !storable {
		return out, false, err
	}
	_ = m.cache.Set(ctx, key, out, m.policy.TTL)
	return out, false, nil
}
