package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var short bool
	var showType bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "resolve <revision>",
		Short: "Resolve a revision expression to an object hash",
		Long: `Resolves a revision expression (branch, tag, HEAD, abbreviated
hash, with optional ^N ~N ^{type} @{N} :path suffixes) to the hash of
the object it designates. Without a trailing peel or path operator the
result is peeled to a commit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			res, err := r.Resolve(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Expr string `json:"expr"`
					Hash string `json:"hash"`
					Type string `json:"type"`
				}{
					Expr: res.Expr,
					Hash: string(res.Hash),
					Type: string(res.Type),
				})
			case showType:
				fmt.Fprintf(out, "%s %s\n", res.Hash, res.Type)
			case short:
				fmt.Fprintln(out, abbrev(r, res.Hash))
			default:
				fmt.Fprintln(out, res.Hash)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print the abbreviated hash")
	cmd.Flags().BoolVar(&showType, "type", false, "print the object type after the hash")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")

	return cmd
}
