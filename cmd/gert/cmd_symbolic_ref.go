package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSymbolicRefCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "symbolic-ref <name> [ref]",
		Short: "Read or set a symbolic reference",
		Long: `With one argument, prints the ref path the symbolic reference
designates (or the raw hash when detached). With two, repoints it.
Only HEAD is a symbolic reference in this layout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "HEAD" {
				return fmt.Errorf("symbolic-ref: unsupported reference %q", args[0])
			}

			r, err := openRepo()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				head, err := r.Head()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), head)
				return nil
			}

			target := strings.TrimSpace(args[1])
			if !strings.HasPrefix(target, "refs/") {
				return fmt.Errorf("symbolic-ref: target %q must be a refs/ path", target)
			}
			return r.SetHead(target)
		},
	}
}
