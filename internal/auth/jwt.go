// Package auth provides session tokens, password hashing, and the HTTP
// middleware that guards protected routes.
//
// AUTHENTICATION FLOW:
//  1. POST /api/auth/login verifies the credentials against the UserTable
//  2. The server issues a signed JWT carrying {id, username, role} and stores
//     it in an HttpOnly cookie
//  3. On later requests the middleware reads the cookie, verifies the JWT,
//     and puts the identity in the request context
//
// The token is self-contained: verification checks the signature and expiry
// only, never the database. That keeps every request storage-free, at a known
// cost — there is no server-side revocation, so logout merely deletes the
// cookie and a stolen token stays valid until its natural expiry (24h).
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/gamestock/internal/model"
)

// TokenTTL is how long an issued session token remains valid.
// Matches the cookie MaxAge set by the login handler.
const TokenTTL = 24 * time.Hour

const issuer = "gamestock"

// TokenService signs and verifies session tokens with a process-wide HMAC
// secret. The same secret does both, so every instance of the server must
// share it.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret should be at least 32
// bytes of randomness in production; anything under 16 is rejected outright.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// sessionClaims is the JWT payload: the identity fields the server needs to
// authorize a request without a database round trip, plus the registered
// claims (iat, exp, iss) the library validates for us.
type sessionClaims struct {
	UserID   int64      `json:"uid"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given identity.
// Expiry is now + TokenTTL; the algorithm is HS256.
func (s *TokenService) Issue(id model.Identity) (string, error) {
	return s.IssueWithTTL(id, TokenTTL)
}

// IssueWithTTL issues a token with a custom lifetime. Negative durations
// produce an already-expired token, which the tests rely on.
func (s *TokenService) IssueWithTTL(id model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()

	c := sessionClaims{
		UserID:   id.ID,
		Username: id.Username,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token string and returns the identity it
// carries. Any failure — malformed token, bad signature, expiry, wrong
// issuer, out-of-range role — comes back as an error; Verify never panics
// and never consults storage.
//
// The jwt.WithValidMethods option pins the algorithm to HS256 so a token
// claiming alg "none" (or an RSA variant) is rejected before signature
// verification — the classic algorithm-confusion attack.
func (s *TokenService) Verify(tokenStr string) (model.Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return model.Identity{}, fmt.Errorf("auth: token expired")
		}
		return model.Identity{}, fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return model.Identity{}, fmt.Errorf("auth: invalid token claims")
	}
	if c.UserID <= 0 {
		return model.Identity{}, fmt.Errorf("auth: token has no user id")
	}
	if !c.Role.Valid() {
		return model.Identity{}, fmt.Errorf("auth: token role out of range")
	}

	return model.Identity{ID: c.UserID, Username: c.Username, Role: c.Role}, nil
}
