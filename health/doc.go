// Package health reports whether the server can do useful work.
//
// Checkers are registered on an Aggregator and run concurrently under one
// deadline. Two checkers ship with the package: UpstreamAuthChecker performs
// a real authentication round trip against the profile API, and
// MemoryChecker watches heap usage.
//
// In HTTP mode the server exposes:
//
//	/healthz  liveness, always 200 while the process serves requests
//	/readyz   200 unless a check is unhealthy
//	/health   JSON report with per-check detail
package health
