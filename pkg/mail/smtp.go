package mail

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP sends through an authenticated SMTP relay with STARTTLS.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string

	send sendFunc
	now  func() time.Time
}

func NewSMTP(host string, port int, username, password string) *SMTP {
	return &SMTP{Host: host, Port: port, Username: username, Password: password, send: smtp.SendMail, now: time.Now}
}

func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	raw, err := s.build(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	from := msg.From
	if a, err := parseAddress(msg.From); err == nil {
		from = a
	}

	// net/smtp has no context support; the send keeps running if ctx ends first.
	done := make(chan error, 1)
	go func() { done <- s.send(addr, auth, from, []string{msg.To}, raw) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp: %w", ctx.Err())
	}
}

func (s *SMTP) build(msg Message) ([]byte, error) {
	var b bytes.Buffer
	boundary := "b-" + uuid.NewString()

	hdr := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	hdr("From", msg.From)
	hdr("To", msg.To)
	if msg.ReplyTo != "" {
		hdr("Reply-To", msg.ReplyTo)
	}
	hdr("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	hdr("Date", s.now().Format(time.RFC1123Z))
	hdr("Message-ID", "<"+uuid.NewString()+"@"+s.Host+">")
	hdr("MIME-Version", "1.0")
	hdr("Content-Type", `multipart/alternative; boundary="`+boundary+`"`)
	b.WriteString("\r\n")

	parts := []struct{ ctype, body string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: %s; charset=\"UTF-8\"\r\n", p.ctype)
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&b)
		if _, err := qp.Write([]byte(p.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes(), nil
}
