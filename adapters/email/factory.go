package email

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/ports"
)

// Provider names accepted by NewSender.
const (
	ProviderLog  = "log"
	ProviderSMTP = "smtp"
	ProviderNone = "none"
)

// NewSender creates the email sender named by provider. An empty provider
// selects the log sender.
func NewSender(provider string, smtpCfg SMTPConfig, logger zerolog.Logger) (ports.EmailSender, error) {
	switch provider {
	case ProviderLog, "":
		return NewLogSender(logger), nil
	case ProviderSMTP:
		return NewSMTPSender(smtpCfg)
	case ProviderNone:
		return NoopSender{}, nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", provider)
	}
}
