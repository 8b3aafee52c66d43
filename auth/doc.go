// Package auth obtains and attaches upstream access tokens.
//
// A TokenProvider performs the authentication exchange. The default
// PasswordTokenProvider posts the configured username and password to
// {base_url}auth/ on every call and returns the "token" field of the reply.
// A non-200 reply is an *AuthenticationError, which callers must let
// propagate: a broken login is fatal for the invocation that triggered it.
//
// TokenTransport attaches "Authorization: Token <token>" to outgoing
// requests. CachingTokenProvider optionally reuses a token for a bounded
// window. RequireAPIKey guards inbound HTTP endpoints.
package auth
