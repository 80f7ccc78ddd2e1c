package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFsckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fsck",
		Short: "Verify object integrity and reference targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			report, err := r.Fsck()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "verified %d objects, %d refs\n", report.Objects, report.Refs)
			for _, broken := range report.BrokenRefs {
				fmt.Fprintf(out, "broken ref: %s\n", broken)
			}
			for _, h := range report.Unreachable {
				fmt.Fprintf(out, "unreachable: %s\n", h)
			}

			if len(report.BrokenRefs) > 0 {
				return fmt.Errorf("fsck: %d broken ref(s)", len(report.BrokenRefs))
			}
			return nil
		},
	}
}
