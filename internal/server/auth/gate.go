package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

var (
	ErrMissingAuthHeader       = errors.New("authorization header is missing")
	ErrInvalidAuthHeaderFormat = errors.New("authorization header format must be Bearer {token}")
)

// TokenVerifier is the part of TokenService the gate needs.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Gate decides whether a request may reach a protected handler.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Check returns the acting user ID carried by the request's bearer token.
// Every failure wraps common.ErrUnauthorized.
func (g *Gate) Check(r *http.Request) (string, error) {
	token, err := BearerToken(r.Header.Get(common.AuthorizationHeaderName))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}

	userID, err := g.tokens.Verify(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}

	return userID, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}

	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], common.BearerScheme) {
		return "", ErrInvalidAuthHeaderFormat
	}

	return parts[1], nil
}
