package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/repo"
)

func newUpdateRefCmd() *cobra.Command {
	var deleteRef bool
	var expect string

	cmd := &cobra.Command{
		Use:   "update-ref <ref> [revision]",
		Short: "Point a fully-qualified ref at a resolved revision",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			name := args[0]

			if deleteRef {
				if len(args) != 1 {
					return fmt.Errorf("update-ref --delete takes only the ref name")
				}
				return r.DeleteRef(name)
			}
			if len(args) != 2 {
				return fmt.Errorf("update-ref requires a target revision")
			}

			target, err := refTarget(r, args[1])
			if err != nil {
				return err
			}

			if strings.TrimSpace(expect) == "" {
				return r.UpdateRef(name, target)
			}
			old, err := refTarget(r, expect)
			if err != nil {
				return fmt.Errorf("resolve --expect %q: %w", expect, err)
			}
			return r.UpdateRefCAS(name, target, old)
		},
	}

	cmd.Flags().BoolVarP(&deleteRef, "delete", "d", false, "delete the ref instead of updating it")
	cmd.Flags().StringVar(&expect, "expect", "", "only update if the ref currently points here")

	return cmd
}

// refTarget resolves an update-ref operand. A full hash of an existing
// object is used directly; anything else goes through revision resolution,
// so refs can be pointed at tag objects and trees, not only commits.
func refTarget(r *repo.Repo, expr string) (object.Hash, error) {
	expr = strings.TrimSpace(expr)
	if h := object.Hash(expr); object.ValidHash(h) && r.Store.Has(h) {
		return h, nil
	}
	res, err := r.Resolve(expr)
	if err != nil {
		return "", err
	}
	return res.Hash, nil
}
