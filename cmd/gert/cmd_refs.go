package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefsCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "refs",
		Short: "List references with their targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			refs, err := r.ListRefs(prefix)
			if err != nil {
				return err
			}
			names, err := r.RefNames(prefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				fmt.Fprintf(out, "%s %s\n", refs[name], name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "only list refs under this prefix (e.g. refs/tags/)")

	return cmd
}
