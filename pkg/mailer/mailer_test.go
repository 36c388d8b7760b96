package mailer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
)

var (
	ivan = persona.Persona{Family: "Ivanov", Name: "Ivan", Surname: "Ivanovich", Email: "ii@x.ru"}
	petr = persona.Persona{Family: "Petrov", Name: "Petr", Surname: "Petrovich", Email: "pp@x.ru"}
)

func draft() letter.Letter {
	l := letter.NewAt(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	l.Topic = "Meeting"
	l.Text = "See you on Friday."
	return l
}

func TestComposeSingleRecipientGreeting(t *testing.T) {
	m, err := Compose(settings.Default(), draft(), []persona.Persona{ivan})
	require.NoError(t, err)
	assert.Equal(t, []string{"ii@x.ru"}, m.To)
	assert.Equal(t, "Meeting", m.Subject)
	assert.Equal(t, "Dear Ivan Ivanovich!\n\nSee you on Friday.\n\nBest regards.\n", m.Body)
}

func TestComposePluralTitle(t *testing.T) {
	m, err := Compose(settings.Default(), draft(), []persona.Persona{ivan, petr, ivan})
	require.NoError(t, err)
	assert.Equal(t, []string{"ii@x.ru", "pp@x.ru"}, m.To)
	assert.True(t, strings.HasPrefix(m.Body, "Dear colleagues!\n\n"), m.Body)
}

func TestComposeBrokenTemplateUsedVerbatim(t *testing.T) {
	s := settings.Default()
	s.SingleGreet = "Hello {{.Name"
	m, err := Compose(s, draft(), []persona.Persona{ivan})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(m.Body, "Hello {{.Name\n\n"), m.Body)
}

func TestComposeNoRecipients(t *testing.T) {
	_, err := Compose(settings.Default(), draft(), []persona.Persona{{Family: "Nomail"}})
	if !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestRenderPlain(t *testing.T) {
	m, err := Compose(settings.Default(), draft(), []persona.Persona{ivan})
	require.NoError(t, err)
	data, err := Bytes(m)
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(data))
	require.NoError(t, err)
	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Meeting", subject)

	p, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(p.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "See you on Friday.")
}

func TestRenderAttachments(t *testing.T) {
	l := draft()
	l.Attach("notes.txt", []byte("remember the slides\n"))
	m, err := Compose(settings.Default(), l, []persona.Persona{ivan, petr})
	require.NoError(t, err)
	data, err := Bytes(m)
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(data))
	require.NoError(t, err)
	var (
		text      string
		filenames []string
		content   []byte
	)
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			text = string(b)
		case *mail.AttachmentHeader:
			name, err := h.Filename()
			require.NoError(t, err)
			filenames = append(filenames, name)
			content = b
		}
	}
	assert.Contains(t, text, "Dear colleagues!")
	assert.Equal(t, []string{"notes.txt"}, filenames)
	assert.Equal(t, "remember the slides\n", string(content))
}

func TestRenderRejectsBadSender(t *testing.T) {
	err := Render(io.Discard, Message{From: "not an address", To: []string{"ii@x.ru"}})
	require.Error(t, err)
}

func TestSMTPSendUsesRelayAndAuth(t *testing.T) {
	s := settings.Default()
	s.SMTPRelay = "mail.example.org"
	s.SMTPPort = 2525
	s.SMTPUser = "writer"
	s.SMTPPassword = "secret"

	var (
		gotAddr string
		gotAuth sasl.Client
		gotTo   []string
		gotData []byte
	)
	c := NewSMTP(s)
	c.send = func(_ context.Context, addr string, a sasl.Client, from string, to []string, r io.Reader) error {
		gotAddr, gotAuth, gotTo = addr, a, to
		gotData, _ = io.ReadAll(r)
		return nil
	}

	m, err := Compose(s, draft(), []persona.Persona{ivan})
	require.NoError(t, err)
	require.NoError(t, c.Send(context.Background(), m))
	assert.Equal(t, "mail.example.org:2525", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, []string{"ii@x.ru"}, gotTo)
	assert.Contains(t, string(gotData), "Subject: Meeting")
}

func TestSMTPSendWrapsRelayError(t *testing.T) {
	boom := errors.New("connection refused")
	c := NewSMTP(settings.Default())
	c.send = func(context.Context, string, sasl.Client, string, []string, io.Reader) error { return boom }

	m, err := Compose(settings.Default(), draft(), []persona.Persona{ivan})
	require.NoError(t, err)
	err = c.Send(context.Background(), m)
	if !errors.Is(err, boom) {
		t.Fatalf("expected relay error, got %v", err)
	}
	assert.Nil(t, c.auth(), "no auth without a user")
}

func TestSMTPSendNoRecipients(t *testing.T) {
	c := NewSMTP(settings.Default())
	if err := c.Send(context.Background(), Message{}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestSMTPSendGivesUpOnStalledRelay(t *testing.T) {
	c := NewSMTP(settings.Default())
	c.Timeout = 50 * time.Millisecond
	c.send = func(ctx context.Context, _ string, _ sasl.Client, _ string, _ []string, _ io.Reader) error {
		<-ctx.Done()
		return errors.New("connection reset")
	}

	m, err := Compose(settings.Default(), draft(), []persona.Persona{ivan})
	require.NoError(t, err)
	err = c.Send(context.Background(), m)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, c.Send(ctx, m), context.Canceled)
}

func TestSMTPSendTimesOutSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()
	t.Cleanup(func() {
		select {
		case conn := <-accepted:
			conn.Close()
		default:
		}
	})

	s := settings.Default()
	s.SMTPRelay = "127.0.0.1"
	s.SMTPPort = ln.Addr().(*net.TCPAddr).Port
	c := NewSMTP(s)
	c.Timeout = 100 * time.Millisecond

	m, err := Compose(s, draft(), []persona.Persona{ivan})
	require.NoError(t, err)
	start := time.Now()
	err = c.Send(context.Background(), m)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}
