package auth

import (
	"testing"
	"time"

	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
)

func TestTokenMakerRoundTrip(t *testing.T) {
	maker := NewTokenMaker("unit-test-secret", time.Hour)

	token, err := maker.Generate(42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := maker.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > time.Hour {
		t.Fatalf("expiry outside the configured window: %v", claims.ExpiresAt)
	}
}

func TestTokenMakerRejectsBadTokens(t *testing.T) {
	maker := NewTokenMaker("unit-test-secret", time.Hour)

	expired, err := NewTokenMaker("unit-test-secret", -time.Minute).Generate(42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	foreign, err := NewTokenMaker("other-secret", time.Hour).Generate(42)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: expired},
		{name: "wrong secret", token: foreign},
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
	}
	for _, tt := range tests {
		if _, err := maker.Parse(tt.token); !apperror.Is(err, apperror.KindInvalidToken) {
			t.Fatalf("%s: expected invalid_token, got %v", tt.name, err)
		}
	}
}
