package email

import (
	"context"

	"github.com/artpar/modelgate/ports"
)

// NoopSender discards every message.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg ports.EmailMessage) error { return nil }

func (NoopSender) SendVerification(ctx context.Context, to, code string) error { return nil }

var _ ports.EmailSender = NoopSender{}
