package persona

import (
	"errors"
	"fmt"
	"strings"

	"tableflip.dev/pismo/pkg/container"
)

// Persona is an address book entry.
type Persona struct {
	Family  string `json:"family"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

// Container stores personas keyed by their full name.
type Container = container.Container[Persona]

// New returns an empty persona ready for editing.
func New() Persona {
	return Persona{}
}

// Identity is the family name, given name and patronymic joined by spaces.
func (p Persona) Identity() container.Identity {
	return fmt.Sprintf("%s %s %s", p.Family, p.Name, p.Surname)
}

// Blank reports whether the persona has no name parts at all.
func (p Persona) Blank() bool {
	return strings.TrimSpace(p.Family+p.Name+p.Surname) == ""
}

// String implements fmt.Stringer.
func (p Persona) String() string {
	if p.Email == "" {
		return p.Identity()
	}
	return fmt.Sprintf("%s <%s>", p.Identity(), p.Email)
}

// Field names an editable persona field.
type Field string

const (
	FieldFamily  Field = "family"
	FieldName    Field = "name"
	FieldSurname Field = "surname"
	FieldEmail   Field = "email"
)

// ErrUnknownField is returned by Get and Set for fields a persona lacks.
var ErrUnknownField = errors.New("persona: unknown field")

// Fields lists the editable fields in display order.
func Fields() []Field {
	return []Field{FieldFamily, FieldName, FieldSurname, FieldEmail}
}

// Label is the human-friendly caption for the field.
func (f Field) Label() string {
	switch f {
	case FieldFamily:
		return "Family name"
	case FieldName:
		return "Name"
	case FieldSurname:
		return "Patronymic"
	case FieldEmail:
		return "Email"
	}
	return string(f)
}

// Get returns the value of field f.
func (p Persona) Get(f Field) (string, error) {
	switch f {
	case FieldFamily:
		return p.Family, nil
	case FieldName:
		return p.Name, nil
	case FieldSurname:
		return p.Surname, nil
	case FieldEmail:
		return p.Email, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// Set assigns v to field f.
func (p *Persona) Set(f Field, v string) error {
	switch f {
	case FieldFamily:
		p.Family = v
	case FieldName:
		p.Name = v
	case FieldSurname:
		p.Surname = v
	case FieldEmail:
		p.Email = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}
