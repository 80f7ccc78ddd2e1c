package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/object"
)

func newMktreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mktree",
		Short: "Build a tree object from stdin and print its hash",
		Long: `Reads tree entries from stdin, one per line:

    mode<SP>hash<TAB>name

where mode is 40000, 100644, or 100755. Entry hashes must name objects
already in the store. Prints the hash of the stored tree.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}

			tree := &object.TreeObj{}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			lineNo := 0
			for scanner.Scan() {
				lineNo++
				line := strings.TrimRight(scanner.Text(), "\r\n")
				if strings.TrimSpace(line) == "" {
					continue
				}

				head, name, ok := strings.Cut(line, "\t")
				if !ok {
					return fmt.Errorf("mktree: line %d: missing tab before name", lineNo)
				}
				mode, hashStr, ok := strings.Cut(head, " ")
				if !ok {
					return fmt.Errorf("mktree: line %d: expected \"mode hash\\tname\"", lineNo)
				}

				h := object.Hash(hashStr)
				if !object.ValidHash(h) {
					return fmt.Errorf("mktree: line %d: invalid hash %q", lineNo, hashStr)
				}
				if !r.Store.Has(h) {
					return fmt.Errorf("mktree: line %d: object %s does not exist", lineNo, h)
				}
				if name == "" {
					return fmt.Errorf("mktree: line %d: empty entry name", lineNo)
				}

				tree.Entries = append(tree.Entries, object.TreeEntry{
					Mode: mode,
					Hash: h,
					Name: name,
				})
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("mktree: read stdin: %w", err)
			}

			h, err := r.Store.WriteTree(tree)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}
