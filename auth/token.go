package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jonwraymond/profilemcp/config"
)

// LoginPath is the upstream authentication endpoint, relative to the base URL.
const LoginPath = "auth/"

// TokenProvider returns an access token for the next upstream request.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Token must honor cancellation/deadlines.
// - Errors: a rejected login is reported as *AuthenticationError; transport
//   and decode failures are returned wrapped. Callers propagate both.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenProviderFunc adapts an ordinary function to TokenProvider.
type TokenProviderFunc func(ctx context.Context) (string, error)

// Token calls f(ctx).
func (f TokenProviderFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// PasswordTokenProvider exchanges a username and password for a token.
// Every call performs a fresh round trip; nothing is cached.
type PasswordTokenProvider struct {
	creds  config.Credentials
	client *http.Client
}

// NewPasswordTokenProvider creates a provider. A nil client means
// http.DefaultClient.
func NewPasswordTokenProvider(creds config.Credentials, client *http.Client) *PasswordTokenProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &PasswordTokenProvider{creds: creds, client: client}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token performs one authentication exchange.
func (p *PasswordTokenProvider) Token(ctx context.Context) (string, error) {
	body, err := json.Marshal(loginRequest{Username: p.creds.Username, Password: p.creds.Password})
	if err != nil {
		return "", fmt.Errorf("auth: encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.creds.URL(LoginPath), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("auth: build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: login request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("auth: read login response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthenticationError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var reply map[string]any
	if err := dec.Decode(&reply); err != nil {
		return "", fmt.Errorf("auth: decode login response: %w", err)
	}
	return tokenString(reply["token"]), nil
}

// tokenString renders the "token" field; an absent field is "".
func tokenString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

var (
	_ TokenProvider = (*PasswordTokenProvider)(nil)
	_ TokenProvider = TokenProviderFunc(nil)
)
