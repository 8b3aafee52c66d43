package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Unix(1_900_000_000, 0)
	tests := []struct {
		name   string
		token  string
		wantOK bool
	}{
		{"jwt with exp", signedJWT(t, jwt.MapClaims{"exp": exp.Unix()}), true},
		{"jwt without exp", signedJWT(t, jwt.MapClaims{"sub": "ada"}), false},
		{"opaque", "9944b09199c62bcf9418ad846dd0e4bbdfc6ee4b", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TokenExpiry(tt.token)
			if ok != tt.wantOK {
				t.Fatalf("TokenExpiry() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(exp) {
				t.Errorf("TokenExpiry() = %v, want %v", got, exp)
			}
		})
	}
}
