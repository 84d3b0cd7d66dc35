// Package mailer sends transactional email.  SMTPMailer talks to a relay;
// LogMailer only records the message and is used when no relay is set.
package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/eventica/internal/config"
	"github.com/iliyamo/eventica/internal/logger"
)

const OTPSubject = "Email Verification - Eventica"

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// OTPMessage renders the verification email for code.
func OTPMessage(to, code string, ttl time.Duration) Message {
	mins := int(ttl.Round(time.Minute) / time.Minute)
	return Message{
		To:      to,
		Subject: OTPSubject,
		Body: fmt.Sprintf("Your verification code is: %s\n\nThis code will expire in %d minutes.\n\n"+
			"If you did not request this code, you can ignore this email.\n", code, mins),
	}
}

// New picks SMTP when an address is configured, else the log mailer.
func New(cfg config.MailConfig, log *logger.Logger) Mailer {
	if cfg.SMTPAddr == "" {
		return &LogMailer{Log: log}
	}
	return &SMTPMailer{Addr: cfg.SMTPAddr, From: cfg.From, User: cfg.User, Pass: cfg.Pass}
}

// LogMailer writes messages to the log instead of sending them.  Bodies can
// carry live codes, so they are logged at debug level only.
type LogMailer struct {
	Log *logger.Logger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.Info("mail (not sent, no SMTP relay)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	m.Log.Debug("mail body", zap.String("to", msg.To), zap.String("body", msg.Body))
	return nil
}

// SMTPMailer sends through an SMTP relay with PLAIN auth when a user is set.
type SMTPMailer struct {
	Addr string
	From string
	User string
	Pass string
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if strings.ContainsAny(msg.To, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return fmt.Errorf("mailer: header contains line break")
	}
	var auth smtp.Auth
	if m.User != "" {
		host, _, err := net.SplitHostPort(m.Addr)
		if err != nil {
			return fmt.Errorf("mailer: bad smtp address: %w", err)
		}
		auth = smtp.PlainAuth("", m.User, m.Pass, host)
	}
	raw := "From: " + m.From + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
		strings.ReplaceAll(msg.Body, "\n", "\r\n")

	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(m.Addr, auth, m.From, []string{msg.To}, []byte(raw)) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mailer: send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
