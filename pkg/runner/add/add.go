// Package add puts personas into the address book from the command line.
package add

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/fatih/color"

	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/printers"
	"tableflip.dev/pismo/pkg/store"
)

// Add stores Persona, or every row of the TSV file at Path when set, and
// saves the address book.
type Add struct {
	Persona persona.Persona
	Path    string

	Data *store.Data
	Out  io.Writer
}

func (n *Add) Do(ctx context.Context) error {
	if n.Data == nil {
		return errors.New("can not add, no data")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if n.Path != "" {
		return n.doImport()
	}

	if n.Persona.Blank() {
		return errors.New("a persona needs a family, name or surname")
	}
	n.Data.Persona.Upsert(n.Persona)
	if err := n.Data.Finalize(); err != nil {
		return err
	}
	pp := printers.PrettyPrint{Out: n.Out}
	pp.Personas(slices.Collect(n.Data.Persona.Records())...)
	return nil
}

func (n *Add) doImport() error {
	f, err := os.Open(n.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	batch, err := persona.Import(f)
	if err != nil {
		return err
	}
	for _, p := range batch.Persona {
		n.Data.Persona.Upsert(p)
	}
	if err := n.Data.Finalize(); err != nil {
		return err
	}

	out := n.Out
	if out == nil {
		out = color.Output
	}
	g := color.New(color.FgGreen)
	_, _ = g.Fprintf(out, "Imported %d", len(batch.Persona))
	if batch.Skipped > 0 {
		_, _ = color.New(color.FgYellow).Fprintf(out, ", skipped %d", batch.Skipped)
	}
	_, _ = fmt.Fprintf(out, ", now %d\n", n.Data.Persona.Size())
	return nil
}
