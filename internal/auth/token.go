package auth

import (
	"auction-marketplace/internal/domain"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier checks bearer tokens issued by the external auth service
// and extracts the user id from the "sub" claim.
type TokenVerifier struct {
	secret     []byte
	algorithms []string
}

func NewTokenVerifier(secret string, algorithms []string) *TokenVerifier {
	if len(algorithms) == 0 {
		algorithms = []string{jwt.SigningMethodHS256.Alg()}
	}
	return &TokenVerifier{
		secret:     []byte(secret),
		algorithms: algorithms,
	}
}

// VerifyToken returns the token subject. Every failure wraps
// domain.ErrUnauthenticated.
func (v *TokenVerifier) VerifyToken(tokenStr string) (string, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return "", fmt.Errorf("%w: no token", domain.ErrUnauthenticated)
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods(v.algorithms), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if subject == "" {
		return "", fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}
	return subject, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("no bearer token")
	}
	return strings.TrimPrefix(header, prefix), nil
}
