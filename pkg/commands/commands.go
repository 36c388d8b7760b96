// Package commands is the pismo command tree.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/pismo/pkg/commands/options"
	"tableflip.dev/pismo/pkg/logging"
	"tableflip.dev/pismo/pkg/store"
)

var (
	oo = &base.OutputOptions{}
)

// session is prepared by the root command before any subcommand runs.
type session struct {
	config store.Config
	log    *zap.Logger
}

// uiAnnotation marks commands that own the terminal, so nothing is logged
// to stderr while they run.
const uiAnnotation = "pismo/terminal"

func New() *cobra.Command {
	lo := &options.LogOptions{}
	s := &session{log: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "pismo",
		Short: base.Wrap80("Keep an address book, group it with tags and send letters over SMTP."),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return err
			}
			_, terminal := cmd.Annotations[uiAnnotation]
			log, err := logging.New(logging.Options{
				Path:    cfg.LogPath(),
				Stderr:  !terminal,
				Verbose: lo.Verbose,
			})
			if err != nil {
				return err
			}
			s.config = cfg
			s.log = log.With(zap.String("command", cmd.Name()))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = s.log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddLogArgs(cmd, lo)

	AddCommands(cmd, s)
	return cmd
}

func AddCommands(topLevel *cobra.Command, s *session) {
	addUI(topLevel, s)
	addAdd(topLevel, s)
	addImport(topLevel, s)
	addGet(topLevel, s)
	addInfo(topLevel, s)
	addVersion(topLevel)
	addCompletions(topLevel)
}
