// Package printers renders records for the command line.
package printers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/store"
	"tableflip.dev/pismo/pkg/tag"
)

type PrettyPrint struct {
	// Out defaults to color.Output.
	Out io.Writer
	// ShowID adds the identity column to record tables.
	ShowID bool
}

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out(), "")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

// TitleWithCount prints title followed by a faint "- n noun(s)".
func (pp *PrettyPrint) TitleWithCount(title string, count int, noun string) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	if count != 1 {
		noun += "s"
	}
	_, _ = c.Fprintf(pp.out(), " - %d %s\n", count, noun)
}

func (pp *PrettyPrint) none() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " none\n\n")
}

func (pp *PrettyPrint) table(header ...interface{}) *uitable.Table {
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	cells := make([]interface{}, 0, len(header))
	for _, h := range header {
		cells = append(cells, bold.Sprint(h))
	}
	tbl.AddRow(cells...)
	return tbl
}

func (pp *PrettyPrint) flush(tbl *uitable.Table) {
	_, _ = fmt.Fprintln(pp.out(), tbl)
	pp.NewLine()
}

func (pp *PrettyPrint) Personas(people ...persona.Persona) {
	pp.TitleWithCount("Personas", len(people), "persona")
	if len(people) == 0 {
		pp.none()
		return
	}
	tbl := pp.table("Family", "Name", "Surname", "Email")
	for _, p := range people {
		email := p.Email
		if email == "" {
			email = color.New(color.Faint).Sprint("-")
		}
		tbl.AddRow(p.Family, p.Name, p.Surname, email)
	}
	pp.flush(tbl)
}

func (pp *PrettyPrint) Tags(tags ...tag.Tag) {
	pp.TitleWithCount("Tags", len(tags), "tag")
	if len(tags) == 0 {
		pp.none()
		return
	}
	tbl := pp.table("Label", "Members")
	tbl.Wrap = true
	for _, t := range tags {
		tbl.AddRow(t.Label, strings.Join(t.Persona, ", "))
	}
	pp.flush(tbl)
}

func (pp *PrettyPrint) Letters(letters ...letter.Letter) {
	pp.TitleWithCount("Letters", len(letters), "letter")
	if len(letters) == 0 {
		pp.none()
		return
	}
	y := color.New(color.FgHiYellow, color.Faint)
	var tbl *uitable.Table
	if pp.ShowID {
		tbl = pp.table("ID", "Created", "Topic", "Attachments")
	} else {
		tbl = pp.table("Created", "Topic", "Attachments")
	}
	for _, l := range letters {
		row := []interface{}{l.Time.Local().Format(time.DateTime), l.Topic, l.AttachmentInfo()}
		if pp.ShowID {
			row = append([]interface{}{y.Sprint(l.Identity())}, row...)
		}
		tbl.AddRow(row...)
	}
	pp.flush(tbl)
}

func (pp *PrettyPrint) Outbox(sent ...store.Sent) {
	pp.TitleWithCount("Outbox", len(sent), "record")
	if len(sent) == 0 {
		pp.none()
		return
	}
	tbl := pp.table("Sent", "Topic", "To")
	tbl.Wrap = true
	for _, s := range sent {
		tbl.AddRow(s.SentAt.Local().Format(time.DateTime), s.Topic, strings.Join(s.To, ", "))
	}
	pp.flush(tbl)
}

// Settings prints every field; secrets should be masked by the caller.
func (pp *PrettyPrint) Settings(path string, s settings.Settings) {
	pp.Title("Settings")
	f := color.New(color.Faint)
	_, _ = f.Fprintln(pp.out(), path)

	tbl := pp.table("Key", "Value")
	tbl.Wrap = true
	for _, field := range settings.Fields() {
		v, _ := s.Get(field)
		tbl.AddRow(string(field), v)
	}
	tbl.RightAlign(0)
	pp.flush(tbl)
}
