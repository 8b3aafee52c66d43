package health

import (
	"context"
	"errors"
	"time"
)

// TokenSource is satisfied by auth.TokenProvider.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// UpstreamAuthChecker verifies that the configured credentials are accepted
// by the upstream API. Each check performs one authentication exchange.
type UpstreamAuthChecker struct {
	tokens  TokenSource
	timeout time.Duration
}

// NewUpstreamAuthChecker creates the checker. timeout <= 0 means 5s.
func NewUpstreamAuthChecker(tokens TokenSource, timeout time.Duration) *UpstreamAuthChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &UpstreamAuthChecker{tokens: tokens, timeout: timeout}
}

// Name returns "upstream_auth".
func (c *UpstreamAuthChecker) Name() string { return "upstream_auth" }

// Check logs in once. The token itself is discarded.
func (c *UpstreamAuthChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	token, err := c.tokens.Token(ctx)
	latency := time.Since(start)
	details := map[string]any{"latency_ms": latency.Milliseconds()}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Unhealthy("upstream authentication timed out", err).WithDetails(details)
	case err != nil:
		return Unhealthy("upstream authentication failed", err).WithDetails(details)
	case token == "":
		return Degraded("upstream returned an empty token").WithDetails(details)
	default:
		return Healthy("upstream authentication succeeded").WithDetails(details)
	}
}
