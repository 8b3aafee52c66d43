package auth

import "net/http"

// TokenScheme is the authorization scheme the upstream API expects.
const TokenScheme = "Token"

// AuthorizationHeader formats the Authorization header value for token.
func AuthorizationHeader(token string) string {
	return TokenScheme + " " + token
}

// TokenTransport is an http.RoundTripper that attaches one token to every
// request it carries. It is meant to live for a single call.
//
// Usage:
//
//	client := &http.Client{Transport: auth.NewTokenTransport(token, base.Transport)}
type TokenTransport struct {
	token string
	base  http.RoundTripper
}

// NewTokenTransport wraps base; a nil base means http.DefaultTransport.
func NewTokenTransport(token string, base http.RoundTripper) *TokenTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &TokenTransport{token: token, base: base}
}

// RoundTrip sets the Authorization header on a clone of req.
func (t *TokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", AuthorizationHeader(t.token))
	return t.base.RoundTrip(r)
}

var _ http.RoundTripper = (*TokenTransport)(nil)
