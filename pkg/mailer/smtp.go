package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"tableflip.dev/pismo/pkg/settings"
)

// DefaultTimeout bounds one delivery when SMTP.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// SMTP delivers through the relay named in the settings. The relay must offer
// STARTTLS; PLAIN auth is used only when a user is configured.
type SMTP struct {
	Settings settings.Settings
	// Timeout bounds dialing and the whole SMTP exchange.
	Timeout time.Duration

	// send is dialSend, swapped in tests.
	send func(ctx context.Context, addr string, a sasl.Client, from string, to []string, r io.Reader) error
}

// NewSMTP returns a sender for s.
func NewSMTP(s settings.Settings) *SMTP {
	return &SMTP{Settings: s, Timeout: DefaultTimeout}
}

func (c *SMTP) auth() sasl.Client {
	if c.Settings.SMTPUser == "" {
		return nil
	}
	return sasl.NewPlainClient("", c.Settings.SMTPUser, c.Settings.SMTPPassword)
}

// Send renders m and hands it to the relay. It gives up once ctx is done or
// Timeout has passed.
func (c *SMTP) Send(ctx context.Context, m Message) error {
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	if c.Settings.SMTPRelay == "" {
		return errors.New("mailer: smtp relay not configured")
	}
	data, err := Bytes(m)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	send := c.send
	if send == nil {
		send = dialSend
	}

	done := make(chan error, 1)
	go func() {
		done <- send(ctx, c.Settings.Addr(), c.auth(), m.From, m.To, bytes.NewReader(data))
	}()
	select {
	case err := <-done:
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("mailer: send via %s: %w", c.Settings.Addr(), ctxErr)
			}
			return fmt.Errorf("mailer: send via %s: %w", c.Settings.Addr(), err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("mailer: send via %s: %w", c.Settings.Addr(), ctx.Err())
	}
}

// dialSend runs one SMTP session. The connection is closed as soon as ctx is
// done, which unblocks whatever command is in flight.
func dialSend(ctx context.Context, addr string, a sasl.Client, from string, to []string, r io.Reader) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()
	if deadline, ok := ctx.Deadline(); ok {
		c.CommandTimeout = time.Until(deadline)
		c.SubmissionTimeout = c.CommandTimeout
	}

	if a != nil {
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.SendMail(from, to, r); err != nil {
		return err
	}
	return c.Quit()
}
