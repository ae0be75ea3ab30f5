package jwtutil

import (
	"errors"
	"testing"
	"time"

	"advisor-service/pkg/config"
)

func TestGenerateAndValidate_Success(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "super-secret", ExpiresIn: time.Hour})

	tok, err := GenerateToken(42, "jane@x.com", "Jane")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	claims, err := ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user id mismatch: got %d want 42", claims.UserID)
	}
	if claims.Email != "jane@x.com" {
		t.Fatalf("email mismatch: got %q", claims.Email)
	}
	if claims.Name != "Jane" {
		t.Fatalf("name mismatch: got %q", claims.Name)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "super-secret", ExpiresIn: -1 * time.Minute})

	tok, err := GenerateToken(1, "a@b.c", "A")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = ValidateToken(tok)
	if err == nil {
		t.Fatalf("expected error for expired token, got nil")
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "right-secret", ExpiresIn: time.Hour})
	tok, err := GenerateToken(1, "a@b.c", "A")
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	Initialize(&config.JWTConfig{SigningKey: "wrong-secret", ExpiresIn: time.Hour})
	_, err = ValidateToken(tok)
	if err == nil {
		t.Fatalf("expected error for invalid signature, got nil")
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Fatalf("signature failure must not be reported as expiry")
	}
}

func TestValidateToken_Malformed(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "k", ExpiresIn: time.Hour})

	_, err := ValidateToken("not.a.jwt")
	if err == nil {
		t.Fatalf("expected error for malformed token, got nil")
	}
}
