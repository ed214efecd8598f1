// Package notify delivers best-effort transactional email to the site
// operator and to visitors.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured indicates no email provider credentials are present.
var ErrNotConfigured = errors.New("email provider is not configured")

// Message is one provider-level email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender hands one message to an email provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Provider names accepted by SenderFromConfig.
const (
	ProviderResend = "resend"
	ProviderSMTP   = "smtp"
)

// ProviderConfig carries the credentials for every supported provider.
type ProviderConfig struct {
	// Provider forces one provider. Empty picks Resend when its key is set,
	// then SMTP when its credentials are set.
	Provider     string
	ResendAPIKey string
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
}

// SenderFromConfig selects a provider. It returns ErrNotConfigured when the
// chosen provider lacks credentials, so callers can still run with email
// disabled.
func SenderFromConfig(cfg ProviderConfig) (Sender, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	hasResend := strings.TrimSpace(cfg.ResendAPIKey) != ""
	hasSMTP := strings.TrimSpace(cfg.SMTPUser) != "" && cfg.SMTPPassword != ""

	if provider == "" {
		switch {
		case hasResend:
			provider = ProviderResend
		case hasSMTP:
			provider = ProviderSMTP
		default:
			return nil, ErrNotConfigured
		}
	}

	switch provider {
	case ProviderResend:
		sender, err := NewResendSender(cfg.ResendAPIKey)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case ProviderSMTP:
		sender, err := NewSMTPSender(SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", provider)
	}
}
