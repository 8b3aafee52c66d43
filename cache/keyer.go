package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Keyer derives a cache key for one tool call.
//
// Contract:
// - Determinism: equal inputs yield equal keys regardless of map order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(tool string, input any) (string, error)
}

// DefaultKeyer produces "result:<tool>:<hash>", where hash is the first
// 16 hex characters of SHA-256 over the canonical JSON of input.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key implements Keyer.
func (DefaultKeyer) Key(tool string, input any) (string, error) {
	canonical, err := canonicalJSON(input)
	if err != nil {
		return "", fmt.Errorf("cache: canonicalize input for %s: %w", tool, err)
	}
	sum := sha256.Sum256(canonical)
	key := "result:" + tool + ":" + hex.EncodeToString(sum[:8])
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// canonicalJSON encodes v with object keys sorted at every depth. Tool
// arguments arrive as map[string]any, so only generic maps and slices
// need special handling.
func canonicalJSON(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		out := []byte{'{'}
		for i, k := range slices.Sorted(maps.Keys(val)) {
			if i > 0 {
				out = append(out, ',')
			}
			name, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			inner, err := canonicalJSON(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, name...)
			out = append(out, ':')
			out = append(out, inner...)
		}
		return append(out, '}'), nil
	case []any:
		out := []byte{'['}
		for i, item := range val {
			if i > 0 {
				out = append(out, ',')
			}
			inner, err := canonicalJSON(item)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
		}
		return append(out, ']'), nil
	default:
		return json.Marshal(v)
	}
}

var _ Keyer = (*DefaultKeyer)(nil)
