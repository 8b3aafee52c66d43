// Package cache stores tool results and tokens in memory for a bounded time.
//
// Caching is opt-in. CacheMiddleware sits in front of a tool executor, keys
// each call by tool name and canonical input, and stores only results the
// executor marks as storable. Tools tagged as side-effecting ("write" and
// friends) always bypass the cache.
package cache
