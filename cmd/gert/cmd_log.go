package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show first-parent history from a resolved revision",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			start := "HEAD"
			if len(args) == 1 {
				start = args[0]
			}
			h, _, err := r.ResolveCommit(start)
			if err != nil {
				return err
			}

			entries, err := r.Log(h, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, entry := range entries {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "commit %s\n", entry.Hash)
				fmt.Fprintf(out, "author %s\n", entry.Commit.Author)
				fmt.Fprintf(out, "date   %s\n", time.Unix(entry.Commit.Timestamp, 0).Format(time.RFC3339))
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimRight(entry.Commit.Message, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits shown")

	return cmd
}
