package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "gert",
		Short:         "Content-addressed repository plumbing with revision resolution",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newInitCmd())
	root.AddCommand(newHashObjectCmd())
	root.AddCommand(newMktreeCmd())
	root.AddCommand(newCommitTreeCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newTagCmd())
	root.AddCommand(newUpdateRefCmd())
	root.AddCommand(newSymbolicRefCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newCatFileCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newRefsCmd())
	root.AddCommand(newReflogCmd())
	root.AddCommand(newVerifyCommitCmd())
	root.AddCommand(newFsckCmd())
	root.AddCommand(newWatchCmd())

	return root
}
