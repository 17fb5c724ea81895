package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Mutter0815/TripIntake/internal/intake"
	"github.com/Mutter0815/TripIntake/pkg/logx"
	"github.com/Mutter0815/TripIntake/pkg/mail"
)

const (
	KindOperator     = "operator"
	KindConfirmation = "confirmation"
)

// Event is one rendered message about a stored submission. It is not persisted.
type Event struct {
	Kind    string
	To      string
	Subject string
	HTML    string
	Text    string
}

type Config struct {
	From string
	// OperatorEmail receives the new-intake alert.
	OperatorEmail string
	// ReplyTo is set on the confirmation so replies reach the operator.
	ReplyTo string
}

type Notifier struct {
	sender mail.Sender
	cfg    Config
	tpl    templates
}

func New(sender mail.Sender, cfg Config) *Notifier {
	if cfg.ReplyTo == "" {
		cfg.ReplyTo = cfg.OperatorEmail
	}
	return &Notifier{sender: sender, cfg: cfg, tpl: mustTemplates()}
}

// Events renders the operator alert and the submitter confirmation for rec.
func (n *Notifier) Events(rec intake.SubmissionRecord) ([]Event, error) {
	op := Event{
		Kind:    KindOperator,
		To:      n.cfg.OperatorEmail,
		Subject: fmt.Sprintf("New trip intake: %s", displayName(rec)),
	}
	conf := Event{
		Kind:    KindConfirmation,
		To:      rec.Email,
		Subject: "We received your trip request",
	}

	var err error
	if op.HTML, op.Text, err = render(n.tpl.operatorHTML, n.tpl.operatorText, rec); err != nil {
		return nil, fmt.Errorf("rendering operator email: %w", err)
	}
	if conf.HTML, conf.Text, err = render(n.tpl.confirmationHTML, n.tpl.confirmationText, rec); err != nil {
		return nil, fmt.Errorf("rendering confirmation email: %w", err)
	}
	return []Event{op, conf}, nil
}

// Notify attempts both sends. A failed send does not skip the other one.
func (n *Notifier) Notify(ctx context.Context, rec intake.SubmissionRecord) error {
	events, err := n.Events(rec)
	if err != nil {
		return &intake.NotificationError{Failures: []intake.NotificationFailure{{Kind: "render", Err: err}}}
	}

	var failures []intake.NotificationFailure
	for _, ev := range events {
		msg := mail.Message{
			From:    n.cfg.From,
			To:      ev.To,
			Subject: ev.Subject,
			HTML:    ev.HTML,
			Text:    ev.Text,
		}
		if ev.Kind == KindConfirmation {
			msg.ReplyTo = n.cfg.ReplyTo
		}
		if err := n.sender.Send(ctx, msg); err != nil {
			failures = append(failures, intake.NotificationFailure{Kind: ev.Kind, Err: err})
			continue
		}
		logx.L().Debugw("mail_sent", "kind", ev.Kind, "id", rec.ID)
	}
	if len(failures) > 0 {
		return &intake.NotificationError{Failures: failures}
	}
	return nil
}

func displayName(rec intake.SubmissionRecord) string {
	if rec.Name != "" {
		return rec.Name
	}
	return rec.Email
}

type executor interface {
	Execute(w io.Writer, data any) error
}

func render(h, t executor, rec intake.SubmissionRecord) (string, string, error) {
	var hb, tb bytes.Buffer
	if err := h.Execute(&hb, rec); err != nil {
		return "", "", err
	}
	if err := t.Execute(&tb, rec); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
