package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/repo"
)

func chdirForTest(t *testing.T, dir string) func() {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%s): %v", dir, err)
	}
	return func() {
		if err := os.Chdir(wd); err != nil {
			t.Fatalf("restore cwd %s: %v", wd, err)
		}
	}
}

// setupHistory initializes a disk-backed repository with two commits on main
// (c1 <- c2) and an annotated tag v1 at c1, then chdirs into it.
func setupHistory(t *testing.T) (r *repo.Repo, c1, c2 object.Hash) {
	t.Helper()
	dir := t.TempDir()
	r, err := repo.Init(dir, "")
	if err != nil {
		t.Fatalf("repo.Init: %v", err)
	}

	c1 = commitFixture(t, r, "c1")
	c2 = commitFixture(t, r, "c2", c1)
	if err := r.UpdateRef("refs/heads/main", c1); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.UpdateRef("refs/heads/main", c2); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if _, err := r.CreateAnnotatedTag("v1", c1, "tester <t@t>", "first", false); err != nil {
		t.Fatalf("CreateAnnotatedTag: %v", err)
	}

	restore := chdirForTest(t, dir)
	t.Cleanup(restore)
	return r, c1, c2
}

func commitFixture(t *testing.T, r *repo.Repo, message string, parents ...object.Hash) object.Hash {
	t.Helper()
	blob, err := r.Store.WriteBlob(&object.Blob{Data: []byte(message + "\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	tree, err := r.Store.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Mode: object.TreeModeFile, Hash: blob, Name: "file.txt"},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	h, err := r.CommitTree(tree, parents, message, repo.CommitOptions{Author: "tester <t@t>"})
	if err != nil {
		t.Fatalf("CommitTree: %v", err)
	}
	return h
}

// runCmd executes a command with the given args and returns its combined
// output, failing the test on error.
func runCmd(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%s %v: %v\noutput:\n%s", cmd.Name(), args, err, out.String())
	}
	return out.String()
}

// runCmdErr executes a command expecting failure and returns the error.
func runCmdErr(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	if err == nil {
		t.Fatalf("%s %v: expected error, got output:\n%s", cmd.Name(), args, out.String())
	}
	return err
}
