package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	token, err := m.GenerateToken("telegram-bot")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Caller != "telegram-bot" || claims.Subject != "telegram-bot" || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	other := NewJWTManager("another-secret", time.Minute)
	token, _ := other.GenerateToken("intruder")
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}

	expired := NewJWTManager("secret", -time.Minute)
	token, _ = expired.GenerateToken("late")
	if _, err := m.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}

	if _, err := m.ValidateToken("not-a-jwt"); err == nil {
		t.Fatalf("expected error for garbage")
	}
}
