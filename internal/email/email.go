package email

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"diversityorgs/internal/config"
)

// sender delivers composed messages. *gomail.Dialer satisfies it.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service handles sending email notifications.
type Service struct {
	cfg     *config.Config
	enabled bool
	sender  sender
}

// NewService creates a new email service. gomail negotiates STARTTLS on
// submission ports and implicit TLS on 465.
func NewService(cfg *config.Config) *Service {
	s := &Service{
		cfg:     cfg,
		enabled: cfg.IsEmailEnabled(),
	}

	if s.enabled {
		s.sender = gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		log.Info().Str("host", cfg.SMTPHost).Int("port", cfg.SMTPPort).Msg("Email notifications enabled")
	} else {
		log.Info().Msg("Email notifications disabled (SMTP not configured)")
	}

	return s
}

// IsEnabled returns true if email is enabled.
func (s *Service) IsEnabled() bool {
	return s.enabled
}

// buildMessage composes a multipart/alternative message with a plain text
// body and an HTML alternative.
func (s *Service) buildMessage(to []string, subject, htmlBody, textBody string) *gomail.Message {
	m := gomail.NewMessage()
	if s.cfg.SMTPFromName != "" {
		m.SetAddressHeader("From", s.cfg.SMTPFrom, s.cfg.SMTPFromName)
	} else {
		m.SetHeader("From", s.cfg.SMTPFrom)
	}
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)

	switch {
	case textBody != "" && htmlBody != "":
		m.SetBody("text/plain", textBody)
		m.AddAlternative("text/html", htmlBody)
	case htmlBody != "":
		m.SetBody("text/html", htmlBody)
	default:
		m.SetBody("text/plain", textBody)
	}
	return m
}

// SendEmail sends an email to the specified recipients.
func (s *Service) SendEmail(to []string, subject, htmlBody, textBody string) error {
	if !s.enabled || len(to) == 0 {
		return nil
	}

	if err := s.sender.DialAndSend(s.buildMessage(to, subject, htmlBody, textBody)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// SendAsync sends an email asynchronously (fire and forget with logging).
func (s *Service) SendAsync(to []string, subject, htmlBody, textBody string) {
	if !s.enabled || len(to) == 0 {
		return
	}

	go func() {
		if err := s.SendEmail(to, subject, htmlBody, textBody); err != nil {
			log.Error().Err(err).Strs("to", to).Msg("Failed to send email")
		} else {
			log.Debug().Strs("to", to).Str("subject", subject).Msg("Email sent")
		}
	}()
}
