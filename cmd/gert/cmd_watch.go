package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/repo"
)

func newWatchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [revision]",
		Short: "Re-resolve a revision whenever the ref namespace changes",
		Long: `Watches HEAD and the refs/ namespace for updates and prints the
resolved hash of the given revision (default HEAD) after each change,
debounced so a burst of ref updates reports once.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			if r.GertDir == "" {
				return fmt.Errorf("watch: repository is not disk-backed")
			}

			expr := "HEAD"
			if len(args) == 1 {
				expr = args[0]
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer watcher.Close()

			if err := addRefDirs(watcher, r.GertDir); err != nil {
				return fmt.Errorf("add watch dirs: %w", err)
			}

			printResolved(cmd, r, expr)
			fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", r.GertDir)

			timer := time.NewTimer(0)
			if !timer.Stop() {
				<-timer.C
			}
			pending := false

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if ignoreWatchEvent(event) {
						continue
					}
					// New refs create directories; watch them too.
					if event.Has(fsnotify.Create) {
						if st, err := os.Stat(event.Name); err == nil && st.IsDir() {
							_ = watcher.Add(event.Name)
						}
					}
					if !pending {
						timer.Reset(debounce)
						pending = true
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				case <-timer.C:
					pending = false
					printResolved(cmd, r, expr)
				}
			}
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "debounce window for batching ref updates")

	return cmd
}

func addRefDirs(watcher *fsnotify.Watcher, gertDir string) error {
	if err := watcher.Add(gertDir); err != nil {
		return err
	}
	return filepath.Walk(filepath.Join(gertDir, "refs"), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// ignoreWatchEvent drops noise from lockfiles, the object store, and logs.
func ignoreWatchEvent(event fsnotify.Event) bool {
	name := filepath.ToSlash(event.Name)
	if strings.HasSuffix(name, ".lock") || strings.Contains(name, "/.") {
		return true
	}
	if strings.Contains(name, "/objects/") || strings.Contains(name, "/logs/") {
		return true
	}
	return false
}

func printResolved(cmd *cobra.Command, r *repo.Repo, expr string) {
	res, err := r.Resolve(expr)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", expr, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", time.Now().Format(time.RFC3339), expr, res.Hash)
}
