// Package email provides email sending adapters.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/artpar/modelgate/ports"
)

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // sender email address
	FromName string // sender display name

	UseTLS      bool // STARTTLS when the server offers it
	SkipVerify  bool
	UseImplicit bool // implicit TLS (port 465)

	Timeout time.Duration
	AppName string
}

// DefaultSMTPConfig returns a configuration with sensible defaults.
func DefaultSMTPConfig() SMTPConfig {
	return SMTPConfig{
		Host:     "localhost",
		Port:     25,
		From:     "noreply@localhost",
		FromName: "modelgate",
		UseTLS:   true,
		Timeout:  30 * time.Second,
		AppName:  "modelgate",
	}
}

// SMTPSender implements ports.EmailSender using SMTP.
type SMTPSender struct {
	config           SMTPConfig
	verificationTmpl *template.Template
}

// NewSMTPSender creates a new SMTP email sender.
func NewSMTPSender(config SMTPConfig) (*SMTPSender, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	tmpl, err := template.New("verification").Parse(verificationTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse verification template: %w", err)
	}
	return &SMTPSender{config: config, verificationTmpl: tmpl}, nil
}

// Send sends an email via SMTP.
func (s *SMTPSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	return s.deliver(ctx, addr, msg.To, buildMessage(s.config, msg, time.Now()))
}

// buildMessage renders msg as an RFC 5322 message. Both bodies produce a
// multipart/alternative message.
func buildMessage(cfg SMTPConfig, msg ports.EmailMessage, now time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", cfg.FromName, cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", msg.Subject)
	buf.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case msg.HTMLBody != "" && msg.TextBody != "":
		boundary := fmt.Sprintf("boundary-%d", now.UnixNano())
		fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)
		writePart(&buf, boundary, "text/plain", msg.TextBody)
		writePart(&buf, boundary, "text/html", msg.HTMLBody)
		fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	case msg.HTMLBody != "":
		buf.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.HTMLBody)
	default:
		buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		buf.WriteString(msg.TextBody)
	}
	return buf.Bytes()
}

func writePart(buf *bytes.Buffer, boundary, contentType, body string) {
	fmt.Fprintf(buf, "--%s\r\n", boundary)
	fmt.Fprintf(buf, "Content-Type: %s; charset=utf-8\r\n\r\n", contentType)
	buf.WriteString(body)
	buf.WriteString("\r\n")
}

func (s *SMTPSender) deliver(ctx context.Context, addr, to string, message []byte) error {
	tlsConfig := &tls.Config{
		ServerName:         s.config.Host,
		InsecureSkipVerify: s.config.SkipVerify,
	}
	netDialer := &net.Dialer{Timeout: s.config.Timeout}

	var (
		conn net.Conn
		err  error
	)
	if s.config.UseImplicit {
		conn, err = (&tls.Dialer{NetDialer: netDialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = netDialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if s.config.UseTLS && !s.config.UseImplicit {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	return client.Quit()
}

// SendVerification mails the account verification code.
func (s *SMTPSender) SendVerification(ctx context.Context, to, code string) error {
	msg, err := verificationMessage(s.verificationTmpl, s.config.AppName, to, code)
	if err != nil {
		return err
	}
	return s.Send(ctx, msg)
}

func verificationMessage(tmpl *template.Template, appName, to, code string) (ports.EmailMessage, error) {
	var html bytes.Buffer
	data := struct{ AppName, Code string }{appName, code}
	if err := tmpl.Execute(&html, data); err != nil {
		return ports.EmailMessage{}, fmt.Errorf("execute verification template: %w", err)
	}
	return ports.EmailMessage{
		To:       to,
		Subject:  fmt.Sprintf("Verify your email for %s", appName),
		HTMLBody: html.String(),
		TextBody: fmt.Sprintf("Your %s verification code is %s\n", appName, code),
	}, nil
}

var _ ports.EmailSender = (*SMTPSender)(nil)

var verificationTemplate = strings.TrimSpace(`
<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Verify your email</title></head>
<body style="font-family: sans-serif; color: #333;">
    <h2>{{.AppName}}</h2>
    <p>Use this code to verify your email address:</p>
    <p style="font-size: 24px; letter-spacing: 4px;"><b>{{.Code}}</b></p>
    <p>If you didn't create an account, you can safely ignore this email.</p>
</body>
</html>
`)
