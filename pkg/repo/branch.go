package repo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/revision"
)

// CreateBranch creates a new branch pointing at the given target hash.
// Returns an error if the branch already exists.
func (r *Repo) CreateBranch(name string, target object.Hash) error {
	if err := validateRefComponent(name); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	if err := r.UpdateRefCAS("refs/heads/"+name, target, ""); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return fmt.Errorf("create branch: branch %q already exists", name)
		}
		return fmt.Errorf("create branch %q: %w", name, err)
	}
	return nil
}

// DeleteBranch removes a branch. The branch HEAD designates cannot be
// deleted.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}

	if err := r.DeleteRef("refs/heads/" + name); err != nil {
		if errors.Is(err, revision.ErrRefNotFound) {
			return fmt.Errorf("delete branch: branch %q does not exist", name)
		}
		return fmt.Errorf("delete branch %q: %w", name, err)
	}
	return nil
}

// ListBranches returns branch names sorted alphabetically, including
// hierarchical names like "feature/x".
func (r *Repo) ListBranches() ([]string, error) {
	refs, err := r.ListRefs("refs/heads/")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}

	names := make([]string, 0, len(refs))
	for full := range refs {
		names = append(names, strings.TrimPrefix(full, "refs/heads/"))
	}
	sort.Strings(names)
	return names, nil
}

func validateRefComponent(name string) error {
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return fmt.Errorf("invalid name %q", name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("invalid name %q", name)
	}
	if strings.ContainsAny(name, " \t\n\r") {
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}
