package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh"

	"github.com/ijlyttle/gert/pkg/object"
)

func newVerifyCommitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-commit <revision>",
		Short: "Verify the SSH signature on a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			h, commit, err := r.ResolveCommit(args[0])
			if err != nil {
				return err
			}

			pub, err := object.VerifyCommitSignature(commit)
			if err != nil {
				return fmt.Errorf("commit %s: %w", abbrev(r, h), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "good signature on %s\n", h)
			fmt.Fprintf(cmd.OutOrStdout(), "key: %s %s\n", pub.Type(), ssh.FingerprintSHA256(pub))
			return nil
		},
	}
}
