package commands

import (
	"github.com/spf13/cobra"

	"tableflip.dev/pismo/pkg/runner/ui"
)

func addUI(topLevel *cobra.Command, s *session) {
	importPath := ""
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the text-based user interface",
		Example: `
pismo ui
pismo ui --import ~/staff.tsv
`,
		Annotations: map[string]string{uiAnnotation: "true"},
		ValidArgs:   []string{},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			i := ui.UI{
				Config:     s.config,
				Logger:     s.log,
				ImportPath: importPath,
			}
			return i.Do(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&importPath, "import", "",
		"TSV file offered by the import menu entry (default persona.tsv).")

	topLevel.AddCommand(cmd)
}
