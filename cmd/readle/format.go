package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/readle/ai/format"
)

func newFormatCmd(v *viper.Viper) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Split a chat reply into display fragments",
		Long: `Reads a chat reply from a file, or from stdin when no file (or "-") is given,
and prints it the way the chat window shows it: numbered, bullet and step
lists become list items, everything else stays prose.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(v, false)
			if err != nil {
				return err
			}
			content, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			res := format.New(format.Options{MinListItems: p.MinListItems}).Classify(content)
			if explain {
				fmt.Fprintf(cmd.ErrOrStderr(), "strategy: %s (%d fragments)\n", strategyName(res.Strategy), len(res.Fragments))
			}

			r, err := newRenderer(p, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return r.Render(cmd.OutOrStdout(), res.Fragments)
		},
	}
	cmd.Flags().BoolVar(&explain, "explain", false, "print the matching strategy to stderr")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.Wrap(err, "failed to read stdin")
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", args[0])
	}
	return string(b), nil
}

func strategyName(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
