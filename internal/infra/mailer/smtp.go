// Package mailer delivers notification e-mail over SMTP.
package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	gomail "gopkg.in/mail.v2"

	"supplement_tracker/internal/domain/mail"
)

// Settings configures the SMTP sender.
type Settings struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	RatePerSecond int
	RetryMax      int
}

// dialer is the part of *gomail.Dialer the sender uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender implements mail.Sender. Sends are throttled to RatePerSecond
// and retried up to RetryMax times.
type SMTPSender struct {
	from    string
	dialer  dialer
	limiter *rate.Limiter
	retry   int
	backoff time.Duration
	logger  *logrus.Entry
}

func NewSMTPSender(s Settings, logger *logrus.Entry) *SMTPSender {
	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)
	d.Timeout = 30 * time.Second
	return newSender(s, d, logger)
}

func newSender(s Settings, d dialer, logger *logrus.Entry) *SMTPSender {
	rps := s.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	return &SMTPSender{
		from:    s.From,
		dialer:  d,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		retry:   s.RetryMax,
		backoff: 500 * time.Millisecond,
		logger:  logger,
	}
}

// Send delivers msg, waiting for the rate limiter first.
func (s *SMTPSender) Send(ctx context.Context, msg mail.Message) error {
	if msg.To == "" {
		return fmt.Errorf("mail to nobody: empty recipient")
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limiter: %w", err)
	}

	m := buildMessage(s.from, msg)

	var last error
	for i := 0; i <= s.retry; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * s.backoff):
			}
		}
		if last = s.dialer.DialAndSend(m); last == nil {
			return nil
		}
		s.logger.WithError(last).WithFields(logrus.Fields{
			"to":      msg.To,
			"attempt": i + 1,
		}).Warn("SMTP send failed")
	}
	return fmt.Errorf("failed to send mail to %s: %w", msg.To, last)
}

func buildMessage(from string, msg mail.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)
	return m
}
