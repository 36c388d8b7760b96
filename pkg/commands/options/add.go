package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/pismo/pkg/persona"
)

// PersonaOptions
type PersonaOptions struct {
	persona.Persona
}

func AddPersonaArgs(cmd *cobra.Command, o *PersonaOptions) {
	cmd.Flags().StringVarP(&o.Family, "family", "f", "",
		"Family name.")
	cmd.Flags().StringVarP(&o.Name, "name", "n", "",
		"Given name.")
	cmd.Flags().StringVarP(&o.Surname, "surname", "s", "",
		"Patronymic.")
	cmd.Flags().StringVarP(&o.Email, "email", "e", "",
		"Email address letters are sent to.")
}
