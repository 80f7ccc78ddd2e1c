package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/repo"
)

func newTagCmd() *cobra.Command {
	var deleteTag string
	var annotate bool
	var message string
	var force bool
	var showHash bool

	cmd := &cobra.Command{
		Use:   "tag [name] [target]",
		Short: "List, create, or delete tags",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			if strings.TrimSpace(deleteTag) != "" {
				if len(args) > 0 {
					return fmt.Errorf("tag --delete does not accept positional args")
				}
				return r.DeleteTag(deleteTag)
			}

			if len(args) == 0 {
				return listTags(cmd, r, showHash)
			}

			name := args[0]
			target, err := tagTarget(r, args)
			if err != nil {
				return err
			}

			if annotate || strings.TrimSpace(message) != "" {
				cfg, err := r.ReadConfig()
				if err != nil {
					return err
				}
				tagHash, err := r.CreateAnnotatedTag(name, target, cfg.User.Name, message, force)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), tagHash)
				return nil
			}
			return r.CreateTag(name, target, force)
		},
	}

	cmd.Flags().StringVarP(&deleteTag, "delete", "d", "", "delete the named tag")
	cmd.Flags().BoolVarP(&annotate, "annotate", "a", false, "create an annotated tag object")
	cmd.Flags().StringVarP(&message, "message", "m", "", "annotated tag message (implies -a)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "replace an existing tag")
	cmd.Flags().BoolVar(&showHash, "show-hash", false, "show tag target hashes when listing")

	return cmd
}

// tagTarget resolves the tag target: the second positional expression, or
// HEAD. Annotated tags may point at any object kind, so the full resolved
// hash is used rather than the peeled commit.
func tagTarget(r *repo.Repo, args []string) (object.Hash, error) {
	expr := "HEAD"
	if len(args) == 2 {
		expr = strings.TrimSpace(args[1])
	}
	// A full hash of an existing object is taken as-is, so non-commit
	// objects can be tagged directly.
	if h := object.Hash(expr); object.ValidHash(h) && r.Store.Has(h) {
		return h, nil
	}
	res, err := r.Resolve(expr)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", expr, err)
	}
	return res.Hash, nil
}

func listTags(cmd *cobra.Command, r *repo.Repo, showHash bool) error {
	if !showHash {
		names, err := r.ListTags()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	tags, err := r.ListTagsWithHashes()
	if err != nil {
		return err
	}
	names, err := r.ListTags()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", tags[name], name)
	}
	return nil
}
