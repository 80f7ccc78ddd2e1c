package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/object"
)

func newHashObjectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-object [file]",
		Short: "Store a file (or stdin) as a blob and print its hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 1 && args[0] != "-" {
				data, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			}

			h, err := r.Store.WriteBlob(&object.Blob{Data: data})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
