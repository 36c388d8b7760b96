package commands

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tableflip.dev/pismo/pkg/commands/options"
	"tableflip.dev/pismo/pkg/runner/add"
	"tableflip.dev/pismo/pkg/store"
)

func addAdd(topLevel *cobra.Command, s *session) {
	po := &options.PersonaOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a persona to the address book",
		Example: `
pismo add --family Ivanov --name Ivan --surname Ivanovich --email ii@x.ru
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a := add.Add{
				Persona: po.Persona,
				Data:    store.Open(s.config.BasePath(), s.log.Named("store")),
			}
			err := a.Do(cmd.Context())
			if err == nil {
				s.log.Info("persona added", zap.String("persona", po.Identity()))
			}
			return err
		},
	}

	options.AddPersonaArgs(cmd, po)
	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:   "import <file.tsv>",
		Short: "Import personas from a tab separated staff list",
		Long: `Import personas from a tab separated file with a header row.
Columns 1 to 3 are family name, given name and patronymic, column 16 is the
email address. Rows with fewer columns are skipped and counted.`,
		Example: `
pismo import persona.tsv
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly one file")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a := add.Add{
				Path: args[0],
				Data: store.Open(s.config.BasePath(), s.log.Named("store")),
			}
			return a.Do(cmd.Context())
		},
	}

	topLevel.AddCommand(cmd)
}
