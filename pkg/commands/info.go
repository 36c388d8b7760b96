package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/pismo/pkg/runner/info"
)

func addInfo(topLevel *cobra.Command, s *session) {
	cmd := &cobra.Command{
		Use:     "settings",
		Aliases: []string{"info"},
		Short:   "Show where data is stored and the effective settings.",
		Example: `
pismo settings
pismo settings --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			i := info.Info{Config: s.config}
			if oo.JSON {
				i.Output = "json"
			}
			err := i.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}
