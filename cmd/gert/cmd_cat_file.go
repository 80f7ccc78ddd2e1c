package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/repo"
	"github.com/ijlyttle/gert/pkg/revision"
)

func newCatFileCmd() *cobra.Command {
	var typeOnly bool
	var pretty bool

	cmd := &cobra.Command{
		Use:   "cat-file <revision>",
		Short: "Resolve a revision and print the object it designates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			h, objType, err := catFileTarget(r, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if typeOnly {
				fmt.Fprintln(out, objType)
				return nil
			}
			if !pretty {
				// Raw content, as stored.
				_, content, err := r.Store.Read(h)
				if err != nil {
					return err
				}
				_, err = out.Write(content)
				return err
			}
			return prettyPrint(cmd, r, h, objType)
		},
	}

	cmd.Flags().BoolVarP(&typeOnly, "type", "t", false, "print only the object type")
	cmd.Flags().BoolVarP(&pretty, "pretty", "p", false, "pretty-print the object content")

	return cmd
}

// catFileTarget resolves the operand without the facade's default peel to
// commit: a bare ref name shows the object the ref points at (an annotated
// tag shows as a tag), and a hash or prefix names any object directly. Only
// expressions with suffix operators go through full resolution.
func catFileTarget(r *repo.Repo, expr string) (object.Hash, object.ObjectType, error) {
	expr = strings.TrimSpace(expr)
	if ref, err := revision.ResolveName(r, expr); err == nil {
		objType, _, err := r.Store.Read(ref.Target)
		if err != nil {
			return "", "", err
		}
		return ref.Target, objType, nil
	}
	if object.IsHexPrefix(expr) {
		if h, err := r.Store.ResolvePrefix(expr); err == nil {
			objType, _, err := r.Store.Read(h)
			if err != nil {
				return "", "", err
			}
			return h, objType, nil
		}
	}
	res, err := r.Resolve(expr)
	if err != nil {
		return "", "", err
	}
	return res.Hash, res.Type, nil
}

func prettyPrint(cmd *cobra.Command, r *repo.Repo, h object.Hash, objType object.ObjectType) error {
	out := cmd.OutOrStdout()
	switch objType {
	case object.TypeBlob:
		blob, err := r.Store.ReadBlob(h)
		if err != nil {
			return err
		}
		_, err = out.Write(blob.Data)
		return err

	case object.TypeTree:
		tree, err := r.Store.ReadTree(h)
		if err != nil {
			return err
		}
		for _, e := range tree.Entries {
			kind := object.TypeBlob
			if e.IsDir() {
				kind = object.TypeTree
			}
			fmt.Fprintf(out, "%s %s %s\t%s\n", e.Mode, kind, e.Hash, e.Name)
		}
		return nil

	case object.TypeCommit:
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "tree %s\n", c.TreeHash)
		for _, p := range c.Parents {
			fmt.Fprintf(out, "parent %s\n", p)
		}
		fmt.Fprintf(out, "author %s\n", c.Author)
		fmt.Fprintf(out, "timestamp %d\n", c.Timestamp)
		if c.Signature != "" {
			fmt.Fprintln(out, "signed")
		}
		fmt.Fprintf(out, "\n%s\n", strings.TrimRight(c.Message, "\n"))
		return nil

	case object.TypeTag:
		t, err := r.Store.ReadTag(h)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "object %s\n", t.TargetHash)
		fmt.Fprintf(out, "type %s\n", t.TargetType)
		fmt.Fprintf(out, "tag %s\n", t.Name)
		fmt.Fprintf(out, "tagger %s\n", t.Tagger)
		fmt.Fprintf(out, "\n%s\n", strings.TrimRight(t.Message, "\n"))
		return nil
	}
	return fmt.Errorf("cat-file: unknown object type %q", objType)
}
