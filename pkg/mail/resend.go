package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Resend sends through the Resend HTTP API.
type Resend struct {
	emails resendEmails
}

func NewResend(apiKey string) *Resend {
	return &Resend{emails: resend.NewClient(apiKey).Emails}
}

func (r *Resend) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}
	if msg.ReplyTo != "" {
		req.ReplyTo = msg.ReplyTo
	}
	resp, err := r.emails.SendWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	if resp == nil || resp.Id == "" {
		return fmt.Errorf("resend: empty response for message to %s", msg.To)
	}
	return nil
}
