package email

import (
	"context"
	"errors"
	"sync"

	"github.com/artpar/modelgate/ports"
)

// SentEmail is a message recorded by MockSender.
type SentEmail struct {
	To      string
	Subject string
	Body    string
	Code    string // set for verification emails
}

// MockSender records messages in memory. Tests only.
type MockSender struct {
	mu     sync.Mutex
	emails []SentEmail

	// FailWith, when set, is returned by every send.
	FailWith error
}

// NewMockSender creates an empty mock sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	return m.record(SentEmail{To: msg.To, Subject: msg.Subject, Body: msg.TextBody})
}

func (m *MockSender) SendVerification(ctx context.Context, to, code string) error {
	return m.record(SentEmail{To: to, Subject: "verification", Code: code})
}

func (m *MockSender) record(e SentEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	m.emails = append(m.emails, e)
	return nil
}

// Emails returns a copy of every recorded message.
func (m *MockSender) Emails() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentEmail, len(m.emails))
	copy(out, m.emails)
	return out
}

// LastCode returns the most recent verification code sent to addr.
func (m *MockSender) LastCode(addr string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.emails) - 1; i >= 0; i-- {
		if m.emails[i].To == addr && m.emails[i].Code != "" {
			return m.emails[i].Code, true
		}
	}
	return "", false
}

// ErrMockFailure is a convenience error for FailWith.
var ErrMockFailure = errors.New("mock email send failure")

var _ ports.EmailSender = (*MockSender)(nil)
