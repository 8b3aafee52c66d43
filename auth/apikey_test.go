package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAPIKey(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		key        string
		header     string
		wantStatus int
	}{
		{"disabled", "", "", http.StatusNoContent},
		{"match", "k3y", "k3y", http.StatusNoContent},
		{"surrounding space", "k3y", "  k3y ", http.StatusNoContent},
		{"missing", "k3y", "", http.StatusUnauthorized},
		{"wrong", "k3y", "nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			RequireAPIKey(tt.key, ok).ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHashAPIKey(t *testing.T) {
	if HashAPIKey("a") == HashAPIKey("b") {
		t.Error("distinct keys share a hash")
	}
	if len(HashAPIKey("a")) != 64 {
		t.Errorf("hash length = %d, want 64", len(HashAPIKey("a")))
	}
	if !ConstantTimeCompare(HashAPIKey("a"), HashAPIKey("a")) {
		t.Error("ConstantTimeCompare() = false for equal hashes")
	}
}
