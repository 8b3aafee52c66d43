package cache

import "time"

// Policy configures CacheMiddleware.
type Policy struct {
	// TTL bounds how long a stored result is served. Zero disables caching.
	TTL time.Duration

	// AllowUnsafe permits caching tools carrying unsafe tags.
	AllowUnsafe bool
}

// NoCachePolicy disables caching.
func NoCachePolicy() Policy {
	return Policy{}
}

// TTLPolicy caches safe tools for ttl.
func TTLPolicy(ttl time.Duration) Policy {
	return Policy{TTL: ttl}
}

// Enabled reports whether anything will be stored.
func (p Policy) Enabled() bool {
	return p.TTL > 0
}
