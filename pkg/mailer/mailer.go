// Package mailer turns a letter into a MIME message and delivers it.
package mailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/emersion/go-message/mail"

	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
)

// ErrNoRecipients is returned when no recipient has an email address.
var ErrNoRecipients = errors.New("mailer: no recipients with an email address")

// Message is a letter addressed and ready to render.
type Message struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Date        time.Time
	Attachments []letter.Attachment
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// Compose addresses l to people. A single recipient is greeted with the
// single greeting template, rendered over the persona; several recipients get
// the plural title. The signature closes the body.
func Compose(s settings.Settings, l letter.Letter, people []persona.Persona) (Message, error) {
	var (
		to   []string
		seen = map[string]bool{}
		with []persona.Persona
	)
	for _, p := range people {
		email := strings.TrimSpace(p.Email)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		to = append(to, email)
		with = append(with, p)
	}
	if len(to) == 0 {
		return Message{}, ErrNoRecipients
	}

	greeting := s.PluralTitle
	if len(with) == 1 {
		greeting = greet(s.SingleGreet, with[0])
	}

	var body strings.Builder
	for _, part := range []string{greeting, l.Text, s.LetterSignature} {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if body.Len() > 0 {
			body.WriteString("\n\n")
		}
		body.WriteString(part)
	}
	body.WriteString("\n")

	return Message{
		From:        s.LetterFrom,
		To:          to,
		Subject:     l.Topic,
		Body:        body.String(),
		Date:        time.Now(),
		Attachments: l.Clone().Attachment,
	}, nil
}

// greet renders the template text over p. Text that is not a valid template
// is used as is.
func greet(text string, p persona.Persona) string {
	tmpl, err := template.New("greet").Option("missingkey=zero").Parse(text)
	if err != nil {
		return text
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, p); err != nil {
		return text
	}
	return b.String()
}

// Render writes m as an RFC 5322 message. Letters without attachments are a
// single text part; otherwise the text is followed by one part per file.
func Render(w io.Writer, m Message) error {
	var h mail.Header
	from, err := mail.ParseAddress(m.From)
	if err != nil {
		return fmt.Errorf("mailer: sender %q: %w", m.From, err)
	}
	h.SetAddressList("From", []*mail.Address{from})
	to := make([]*mail.Address, 0, len(m.To))
	for _, addr := range m.To {
		a, err := mail.ParseAddress(addr)
		if err != nil {
			return fmt.Errorf("mailer: recipient %q: %w", addr, err)
		}
		to = append(to, a)
	}
	h.SetAddressList("To", to)
	h.SetSubject(m.Subject)
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("mailer: message id: %w", err)
	}

	if len(m.Attachments) == 0 {
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		body, err := mail.CreateSingleInlineWriter(w, h)
		if err != nil {
			return fmt.Errorf("mailer: render: %w", err)
		}
		if _, err := io.WriteString(body, m.Body); err != nil {
			return fmt.Errorf("mailer: render: %w", err)
		}
		return body.Close()
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("mailer: render: %w", err)
	}
	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return fmt.Errorf("mailer: render: %w", err)
	}
	if _, err := io.WriteString(tw, m.Body); err != nil {
		return fmt.Errorf("mailer: render: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("mailer: render: %w", err)
	}

	for _, a := range m.Attachments {
		var ah mail.AttachmentHeader
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		ah.Set("Content-Type", ct)
		ah.SetFilename(a.Filename)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("mailer: attach %s: %w", a.Filename, err)
		}
		if _, err := aw.Write(a.Content); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", a.Filename, err)
		}
		if err := aw.Close(); err != nil {
			return fmt.Errorf("mailer: attach %s: %w", a.Filename, err)
		}
	}
	return mw.Close()
}

// Bytes renders m into memory.
func Bytes(m Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
