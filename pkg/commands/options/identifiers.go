package options

import (
	"github.com/spf13/cobra"
)

// IDOptions
type IDOptions struct {
	ShowID bool
	Letter string
}

func AddShowIDArgs(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().BoolVarP(&o.ShowID, "show-id", "k", false,
		"Show the identity of each letter.")
}

func AddLetterArgs(cmd *cobra.Command, o *IDOptions) {
	cmd.Flags().StringVar(&o.Letter, "letter", "",
		"Only show deliveries of the letter with this identity.")
}
