package repo

import (
	"fmt"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/revision"
)

// storeObjects adapts the object store to the revision engine's source
// interface.
type storeObjects struct {
	store *object.Store
}

func (s storeObjects) Lookup(h object.Hash) (object.ObjectType, []byte, error) {
	return s.store.Read(h)
}

func (s storeObjects) LookupPrefix(prefix string) (object.Hash, error) {
	return s.store.ResolvePrefix(prefix)
}

// Resolver returns a revision resolver wired to this repository's object
// store and reference namespace.
func (r *Repo) Resolver() *revision.Resolver {
	return &revision.Resolver{
		Objects: storeObjects{store: r.Store},
		Refs:    r,
	}
}

// Resolve resolves a revision expression against this repository.
func (r *Repo) Resolve(expr string) (revision.Resolved, error) {
	return r.Resolver().Resolve(expr)
}

// ResolveCommit resolves an expression that must designate a commit and
// returns the commit object.
func (r *Repo) ResolveCommit(expr string) (object.Hash, *object.CommitObj, error) {
	return r.Resolver().ResolveCommit(expr)
}

// ResolveTree resolves an expression and peels the result to a tree, so
// commit-designating expressions name their root tree.
func (r *Repo) ResolveTree(expr string) (object.Hash, error) {
	res, err := r.Resolve(expr)
	if err != nil {
		return "", err
	}
	if res.Type == object.TypeTree {
		return res.Hash, nil
	}
	h, _, err := revision.Peel(storeObjects{store: r.Store}, res.Hash, object.TypeTree)
	if err != nil {
		return "", fmt.Errorf("resolve tree %q: %w", expr, err)
	}
	return h, nil
}
