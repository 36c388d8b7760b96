package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"

	"tableflip.dev/pismo/pkg/commands/options"
	"tableflip.dev/pismo/pkg/runner/get"
	"tableflip.dev/pismo/pkg/store"
	"tableflip.dev/pismo/pkg/timeutil"
)

func addGet(topLevel *cobra.Command, s *session) {
	for _, kind := range []struct {
		kind    get.Kind
		aliases []string
		short   string
	}{
		{get.Personas, []string{"personas", "people"}, "List personas in the address book."},
		{get.Tags, []string{"tags"}, "List tags and their members."},
		{get.Letters, []string{"letters"}, "List composed letters."},
	} {
		addGetKind(topLevel, s, kind.kind, kind.aliases, kind.short)
	}
	addOutbox(topLevel, s)
}

func addGetKind(topLevel *cobra.Command, s *session, kind get.Kind, aliases []string, short string) {
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     string(kind),
		Aliases: aliases,
		Short:   short,
		Example: fmt.Sprintf(`
pismo %s
pismo %s --json
`, kind, kind),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			g := get.Get{
				Kind:   kind,
				ShowID: io.ShowID,
				Data:   store.Open(s.config.BasePath(), s.log.Named("store")),
			}
			if oo.JSON {
				g.Output = "json"
			}
			err := g.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	if kind == get.Letters {
		options.AddShowIDArgs(cmd, io)
	}
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func addOutbox(topLevel *cobra.Command, s *session) {
	io := &options.IDOptions{}
	since := ""

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "List delivered letters.",
		Example: `
pismo outbox
pismo outbox --since 1w
pismo outbox --letter 2024-05-01T09:00:00Z --json
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			o, err := store.OpenOutbox(s.config.BasePath())
			if err != nil {
				return oo.HandleError(err)
			}
			g := get.Get{
				Kind:   get.Outbox,
				Letter: io.Letter,
				Outbox: o,
			}
			if since != "" {
				if g.Since, err = timeutil.ParseWindow(since); err != nil {
					return oo.HandleError(err)
				}
			}
			if oo.JSON {
				g.Output = "json"
			}
			err = g.Do(cmd.Context())
			return oo.HandleError(err)
		},
	}

	options.AddLetterArgs(cmd, io)
	cmd.Flags().StringVar(&since, "since", "",
		`Only show deliveries within this window, example: --since=1w2d.`)
	_ = cmd.RegisterFlagCompletionFunc("letter", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return letterCompletions(cmd.Context(), s, toComplete), cobra.ShellCompDirectiveNoFileComp
	})
	base.AddOutputArg(cmd, oo)
	topLevel.AddCommand(cmd)
}

func letterCompletions(_ context.Context, s *session, toComplete string) []string {
	cfg := s.config
	if cfg == nil {
		var err error
		if cfg, err = store.LoadConfig(); err != nil {
			return nil
		}
	}
	data := store.Open(cfg.BasePath(), s.log)
	var ids []string
	for id := range data.Letter.Identities() {
		if strings.HasPrefix(id, toComplete) {
			ids = append(ids, strconv.Quote(id))
		}
	}
	return ids
}
