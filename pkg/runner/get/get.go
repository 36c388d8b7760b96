// Package get prints stored records.
package get

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/pismo/pkg/printers"
	"tableflip.dev/pismo/pkg/store"
)

// Kind selects what Get prints.
type Kind string

const (
	Personas Kind = "persona"
	Tags     Kind = "tag"
	Letters  Kind = "letter"
	Outbox   Kind = "outbox"
)

type Get struct {
	Kind   Kind
	ShowID bool
	// Output is "json" for machine readable output, otherwise tables.
	Output string
	// Letter narrows the outbox to one letter identity.
	Letter string
	// Since drops deliveries older than this window; zero keeps all.
	Since time.Duration
	// Now defaults to time.Now.
	Now func() time.Time

	Data   *store.Data
	Outbox store.Outbox
	Out    io.Writer
}

func (g *Get) out() io.Writer {
	if g.Out == nil {
		return color.Output
	}
	return g.Out
}

func (g *Get) Do(ctx context.Context) error {
	if g.Kind == Outbox {
		return g.doOutbox(ctx)
	}
	if g.Data == nil {
		return errors.New("can not get, no data")
	}

	pp := printers.PrettyPrint{Out: g.Out, ShowID: g.ShowID}
	switch g.Kind {
	case Personas:
		all := slices.Collect(g.Data.Persona.Records())
		if g.Output == "json" {
			return g.json(all)
		}
		pp.Personas(all...)
	case Tags:
		all := slices.Collect(g.Data.Tag.Records())
		if g.Output == "json" {
			return g.json(all)
		}
		pp.Tags(all...)
	case Letters:
		all := slices.Collect(g.Data.Letter.Records())
		if g.Output == "json" {
			return g.json(all)
		}
		pp.Letters(all...)
	default:
		return fmt.Errorf("unknown kind %q", g.Kind)
	}
	return nil
}

func (g *Get) doOutbox(ctx context.Context) error {
	if g.Outbox == nil {
		return errors.New("can not get, no outbox")
	}
	all, err := g.Outbox.List(ctx, g.Letter)
	if err != nil {
		return err
	}
	if g.Since > 0 {
		now := time.Now
		if g.Now != nil {
			now = g.Now
		}
		cutoff := now().Add(-g.Since)
		all = slices.DeleteFunc(all, func(s store.Sent) bool { return s.SentAt.Before(cutoff) })
	}
	if g.Output == "json" {
		return g.json(all)
	}
	pp := printers.PrettyPrint{Out: g.Out}
	pp.Outbox(all...)
	return nil
}

func (g *Get) json(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(g.out(), string(b))
	return err
}
