// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Authentication Ports
// -----------------------------------------------------------------------------

// Principal is the verified identity behind a bearer token.
type Principal struct {
	UserID string
	Email  string
}

// TokenVerifier resolves bearer tokens to principals.
type TokenVerifier interface {
	// Verify returns the principal of a valid token.
	// Expired, malformed or wrongly signed tokens return an error.
	Verify(token string) (Principal, error)
}

// TokenIssuer issues bearer tokens.
type TokenIssuer interface {
	// GenerateToken signs a token for the user and returns it with its expiry.
	GenerateToken(userID, email string) (string, time.Time, error)
}

// -----------------------------------------------------------------------------
// Hasher Port
// -----------------------------------------------------------------------------

// Hasher provides password/key hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Email Ports
// -----------------------------------------------------------------------------

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// EmailSender sends emails.
type EmailSender interface {
	// Send sends an email.
	Send(ctx context.Context, msg EmailMessage) error

	// SendVerification sends the account verification code.
	SendVerification(ctx context.Context, to, code string) error
}

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock reports the current time. Token issuance and expiry read it.
type Clock interface {
	Now() time.Time
}

// IDGenerator produces values for UUID primary keys.
type IDGenerator interface {
	New() string
}
