package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/repo"
)

func newCommitTreeCmd() *cobra.Command {
	var parents []string
	var message string
	var author string
	var signKey string
	var sign bool

	cmd := &cobra.Command{
		Use:   "commit-tree <tree>",
		Short: "Create a commit object from an existing tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			tree, err := r.ResolveTree(args[0])
			if err != nil {
				return err
			}

			parentHashes := make([]object.Hash, 0, len(parents))
			for _, p := range parents {
				h, _, err := r.ResolveCommit(p)
				if err != nil {
					return fmt.Errorf("parent %q: %w", p, err)
				}
				parentHashes = append(parentHashes, h)
			}

			opts := repo.CommitOptions{Author: author}
			if sign || strings.TrimSpace(signKey) != "" {
				signer, keyPath, err := newSSHCommitSigner(signKey)
				if err != nil {
					return err
				}
				opts.Signer = signer
				fmt.Fprintf(cmd.ErrOrStderr(), "signing with %s\n", keyPath)
			}

			h, err := r.CommitTree(tree, parentHashes, message, opts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent commit (revision expression, repeatable)")
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", "author identity (default from config)")
	cmd.Flags().StringVar(&signKey, "sign-key", "", "SSH private key to sign with")
	cmd.Flags().BoolVarP(&sign, "sign", "S", false, "sign with the default SSH key")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}
