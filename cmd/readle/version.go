package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrygo/readle/internal/version"
)

func newVersionCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the readle version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.StringFull())
				return
			}
			v := version.String()
			if version.IsPrerelease(version.Version) {
				v += " (development build)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "readle %s\n", v)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include commit and build time")
	return cmd
}
