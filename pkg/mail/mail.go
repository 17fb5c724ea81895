// Package mail sends single-recipient transactional email through a provider.
package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
)

// Message is one transactional email.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a Message. A nil error means the provider accepted it, not that it was delivered.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("mail: message has no recipient")

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if strings.TrimSpace(m.From) == "" {
		return errors.New("mail: message has no sender")
	}
	if strings.ContainsAny(m.To+m.From+m.ReplyTo+m.Subject, "\r\n") {
		return fmt.Errorf("mail: header injection in message to %s", m.To)
	}
	return nil
}

// parseAddress returns the bare address of "Name <addr>" or "addr".
func parseAddress(s string) (string, error) {
	a, err := netmail.ParseAddress(s)
	if err != nil {
		return "", err
	}
	return a.Address, nil
}
