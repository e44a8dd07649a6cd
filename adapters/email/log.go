package email

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/ports"
)

// LogSender writes messages to the log instead of delivering them.
// It is the default sender so registrations can be verified locally.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a sender logging through logger.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "email").Logger()}
}

func (s *LogSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	s.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.TextBody).
		Msg("email")
	return nil
}

func (s *LogSender) SendVerification(ctx context.Context, to, code string) error {
	s.logger.Info().
		Str("to", to).
		Str("code", code).
		Msg("verification code")
	return nil
}

var _ ports.EmailSender = (*LogSender)(nil)
