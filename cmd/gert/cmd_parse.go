package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/revision"
)

func newParseCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <revision>",
		Short: "Parse a revision expression without resolving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := revision.Parse(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				type jsonOp struct {
					Kind   string `json:"kind"`
					Count  int    `json:"count,omitempty"`
					Target string `json:"target,omitempty"`
					Path   string `json:"path,omitempty"`
				}
				ops := make([]jsonOp, 0, len(expr.Ops))
				for _, op := range expr.Ops {
					ops = append(ops, jsonOp{
						Kind:   op.Kind.String(),
						Count:  op.Count,
						Target: string(op.Target),
						Path:   op.Path,
					})
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Base string   `json:"base"`
					Ops  []jsonOp `json:"ops"`
				}{Base: expr.Base, Ops: ops})
			}

			fmt.Fprintf(out, "base %q\n", expr.Base)
			for _, op := range expr.Ops {
				fmt.Fprintln(out, formatOp(op))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parsed expression as JSON")

	return cmd
}

func formatOp(op revision.SuffixOp) string {
	switch op.Kind {
	case revision.OpParent:
		return fmt.Sprintf("parent(%d)", op.Count)
	case revision.OpAncestor:
		return fmt.Sprintf("ancestor(%d)", op.Count)
	case revision.OpPeel:
		if op.Target == "" {
			return "peel(any)"
		}
		return fmt.Sprintf("peel(%s)", op.Target)
	case revision.OpReflog:
		return fmt.Sprintf("reflog(%d)", op.Count)
	case revision.OpPath:
		return fmt.Sprintf("path(%s)", op.Path)
	}
	return "unknown"
}
