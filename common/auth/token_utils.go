package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

// ErrSecretNotConfigured is returned when a parser was built without a key.
var ErrSecretNotConfigured = errors.New("JWT secret not configured")

// Claims are the identity fields the storefront reads from an access token.
type Claims struct {
	UserID string
	Email  string
}

// TokenParser validates HMAC-signed access tokens issued by the auth service.
type TokenParser struct {
	secretKey []byte
}

func NewTokenParser(secret string) *TokenParser {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &TokenParser{}
	}
	return &TokenParser{secretKey: []byte(secret)}
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
// If expectedType is non-empty, the claim "typ" must match it.
func (p *TokenParser) ParseAndValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error) {
	if p == nil || p.secretKey == nil {
		return nil, ErrSecretNotConfigured
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secretKey, nil
	})

	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	if expectedType != "" {
		if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}
	return claims, nil
}

// ParseAccessToken validates an access token and extracts the user identity.
// The subject is read from "sub", falling back to the older "user_id" claim.
func (p *TokenParser) ParseAccessToken(tokenStr string) (Claims, error) {
	claims, err := p.ParseAndValidateToken(tokenStr, "access")
	if err != nil {
		return Claims{}, err
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		userID, _ = claims["user_id"].(string)
	}
	if userID == "" {
		return Claims{}, fmt.Errorf("token has no subject")
	}
	email, _ := claims["email"].(string)
	return Claims{UserID: userID, Email: email}, nil
}
