package jwtutil

import (
	"errors"
	"time"

	"advisor-service/pkg/config"

	"github.com/golang-jwt/jwt/v4"
)

// ErrTokenExpired is returned by ValidateToken when the token was valid
// but its expiry has passed. Callers use it to surface an explicit
// "Token expired" response instead of a generic rejection.
var ErrTokenExpired = errors.New("token expired")

var (
	secret    []byte
	expiresIn = time.Hour
)

// AdvisorClaims represents the JWT claims for advisor authentication
type AdvisorClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Initialize configures the signing key and token lifetime
func Initialize(cfg *config.JWTConfig) {
	secret = []byte(cfg.SigningKey)
	if cfg.ExpiresIn != 0 {
		expiresIn = cfg.ExpiresIn
	}
}

// GenerateToken creates a signed JWT embedding the advisor's identity
func GenerateToken(userID uint, email, name string) (string, error) {
	claims := AdvisorClaims{
		UserID: userID,
		Email:  email,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates and parses the JWT token. Expired tokens are
// reported as ErrTokenExpired; any other failure means the token is
// invalid (bad signature, malformed, wrong algorithm).
func ValidateToken(tokenString string) (*AdvisorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdvisorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, err
	}

	if claims, ok := token.Claims.(*AdvisorClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}
