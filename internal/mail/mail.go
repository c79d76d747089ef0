// Package mail delivers outgoing email. The SMTP sender wraps go-mail in a
// circuit breaker; the log sender is used when no SMTP host is configured.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	gomail "github.com/wneessen/go-mail"

	"github.com/devops-offer/offer/internal/config"
)

var ErrInvalidMessage = errors.New("invalid mail message")

// Message is a plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (m Message) validate() error {
	if m.To == "" || m.Subject == "" {
		return ErrInvalidMessage
	}
	return nil
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an SMTP sender when a host is configured and a log
// sender otherwise.
func NewSender(cfg config.Mail, log *logrus.Logger) (Sender, error) {
	if cfg.Host == "" {
		log.Warn("MAIL_HOST is not set, outgoing email will only be logged")
		return NewLogSender(log), nil
	}
	return NewSMTPSender(cfg, log)
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	client  *gomail.Client
	from    string
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewSMTPSender creates an SMTP sender. Authentication is only enabled when
// a username is configured.
func NewSMTPSender(cfg config.Mail, log *logrus.Logger) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(10 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "SMTP",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
	}

	return &SMTPSender{
		client:  client,
		from:    cfg.From,
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: 15 * time.Second,
	}, nil
}

// Send delivers msg. While the breaker is open it fails fast with
// gobreaker.ErrOpenState.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	m := gomail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Body)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.DialAndSendWithContext(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}
