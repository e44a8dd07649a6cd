// Package auth issues and verifies HS256 bearer tokens and provides the gate
// middleware that guards authenticated routes.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/artpar/modelgate/adapters/clock"
	"github.com/artpar/modelgate/ports"
)

// DefaultExpiration applies when the configured token TTL is zero.
const DefaultExpiration = 7 * 24 * time.Hour

const issuer = "modelgate"

// ErrInvalidToken wraps every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by a modelgate access token.
type Claims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies access tokens. Safe for concurrent use.
type TokenService struct {
	key   []byte
	ttl   time.Duration
	clock ports.Clock
}

// NewTokenService returns a service signing with secret. An empty secret is
// replaced by a random one, so issued tokens die with the process.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if secret == "" {
		secret = GenerateSecret()
	}
	if ttl <= 0 {
		ttl = DefaultExpiration
	}
	return &TokenService{key: []byte(secret), ttl: ttl, clock: clock.Real{}}
}

// SetClock replaces the time source.
func (s *TokenService) SetClock(c ports.Clock) {
	s.clock = c
}

// GenerateToken signs a token for userID and returns it with its expiry.
func (s *TokenService) GenerateToken(userID, email string) (string, time.Time, error) {
	issued := s.clock.Now().UTC()
	expires := issued.Add(s.ttl)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// ValidateToken parses raw and checks signature, issuer and expiry.
func (s *TokenService) ValidateToken(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// Verify resolves a token to its principal.
func (s *TokenService) Verify(raw string) (ports.Principal, error) {
	c, err := s.ValidateToken(raw)
	if err != nil {
		return ports.Principal{}, err
	}
	return ports.Principal{UserID: c.UserID, Email: c.Email}, nil
}

// GenerateSecret returns 32 random bytes, hex encoded.
func GenerateSecret() string {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("auth: read random secret: %v", err))
	}
	return hex.EncodeToString(b[:])
}

var (
	_ ports.TokenVerifier = (*TokenService)(nil)
	_ ports.TokenIssuer   = (*TokenService)(nil)
)
