package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/resend/resend-go/v2"
)

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender delivers through the Resend HTTP API.
type ResendSender struct {
	emails resendEmails
}

// NewResendSender builds a sender for apiKey.
func NewResendSender(apiKey string) (*ResendSender, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	return &ResendSender{emails: resend.NewClient(apiKey).Emails}, nil
}

// Send submits msg. A nil error means the provider accepted it.
func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Id) == "" {
		return fmt.Errorf("resend send: empty message id")
	}
	return nil
}
