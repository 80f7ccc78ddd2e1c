package revision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ijlyttle/gert/pkg/object"
)

// Resolver orchestrates name disambiguation, expression parsing, and object
// peeling into a single resolution entry point. It is stateless and safe for
// concurrent use when its sources are safe for concurrent reads.
type Resolver struct {
	Objects ObjectSource
	Refs    RefSource
}

// Resolve resolves a revision expression to a concrete object.
//
// The whole expression is first tried as a literal reference name, so a
// branch actually named "main~1" beats suffix interpretation. Only when that
// fails is the expression parsed: the base resolves through name
// disambiguation and then hash-prefix lookup, and the suffix operators apply
// left-to-right. Unless the final operator designated another kind, the
// terminal object is peeled to a commit; an object that is not
// commit-reachable fails with WrongKindError.
func (rv *Resolver) Resolve(expr string) (Resolved, error) {
	ref, nameErr := ResolveName(rv.Refs, expr)
	switch {
	case nameErr == nil:
		if h, objType, err := Peel(rv.Objects, ref.Target, object.TypeCommit); err == nil {
			return Resolved{Hash: h, Type: objType, Expr: expr}, nil
		}
	case !errors.Is(nameErr, ErrRefNotFound):
		// A failed lookup (malformed ref file, unreadable namespace) is a
		// real diagnostic; falling through would mask it as not-found.
		return Resolved{}, nameErr
	}

	parsed, err := Parse(expr)
	if err != nil {
		return Resolved{}, err
	}

	cur, refName, err := rv.resolveBase(parsed, expr)
	if err != nil {
		return Resolved{}, err
	}

	designated := false
	for _, op := range parsed.Ops {
		switch op.Kind {
		case OpReflog:
			if refName == "" {
				return Resolved{}, &NotFoundError{Expr: expr, Detail: "reflog lookup requires a named reference"}
			}
			h, err := rv.Refs.ReflogAt(refName, op.Count)
			if err != nil {
				return Resolved{}, &NotFoundError{Expr: expr, Detail: err.Error()}
			}
			cur = h
		case OpParent:
			commit, err := rv.commitAt(cur, expr)
			if err != nil {
				return Resolved{}, err
			}
			if op.Count > len(commit.Parents) {
				return Resolved{}, &NotAncestorError{Expr: expr, Parent: op.Count, Have: len(commit.Parents)}
			}
			cur = commit.Parents[op.Count-1]
		case OpAncestor:
			for g := 0; g < op.Count; g++ {
				commit, err := rv.commitAt(cur, expr)
				if err != nil {
					return Resolved{}, err
				}
				if len(commit.Parents) == 0 {
					return Resolved{}, &NotAncestorError{Expr: expr, Parent: 1, Have: 0}
				}
				cur = commit.Parents[0]
			}
		case OpPeel:
			h, _, err := Peel(rv.Objects, cur, op.Target)
			if err != nil {
				return Resolved{}, fmt.Errorf("resolve %q: %w", expr, err)
			}
			cur = h
		case OpPath:
			treeHash, _, err := Peel(rv.Objects, cur, object.TypeTree)
			if err != nil {
				return Resolved{}, fmt.Errorf("resolve %q: %w", expr, err)
			}
			cur = treeHash
			if op.Path != "" {
				h, err := rv.treeEntryAt(treeHash, op.Path, expr)
				if err != nil {
					return Resolved{}, err
				}
				cur = h
			}
		}
		designated = op.Kind == OpPeel || op.Kind == OpPath
	}

	objType, _, err := rv.Objects.Lookup(cur)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolve %q: %w", expr, err)
	}
	if designated || objType == object.TypeCommit {
		return Resolved{Hash: cur, Type: objType, Expr: expr}, nil
	}

	// The caller asked for a commit by default: try peeling first, mirror
	// the kind mismatch only when peeling cannot reach one.
	h, peeledType, err := Peel(rv.Objects, cur, object.TypeCommit)
	if err != nil {
		return Resolved{}, &WrongKindError{Expr: expr, Type: objType}
	}
	return Resolved{Hash: h, Type: peeledType, Expr: expr}, nil
}

// ResolveCommit resolves an expression that must designate a commit and
// returns the commit object itself.
func (rv *Resolver) ResolveCommit(expr string) (object.Hash, *object.CommitObj, error) {
	res, err := rv.Resolve(expr)
	if err != nil {
		return "", nil, err
	}
	if res.Type != object.TypeCommit {
		return "", nil, &WrongKindError{Expr: expr, Type: res.Type}
	}
	_, data, err := rv.Objects.Lookup(res.Hash)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %q: %w", expr, err)
	}
	commit, err := object.UnmarshalCommit(data)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %q: %w", expr, err)
	}
	return res.Hash, commit, nil
}

// resolveBase resolves the base selector of a parsed expression. Named
// references win over hash abbreviations; an abbreviation matching several
// objects surfaces as ErrAmbiguousPrefix, never as a silent first match.
// The returned name is non-empty only when the base resolved via a
// reference, which reflog operators require.
func (rv *Resolver) resolveBase(parsed *Expression, expr string) (object.Hash, string, error) {
	base := parsed.Base
	if base == "" {
		// Bare "@{N}" counts from HEAD.
		base = "HEAD"
	}

	ref, err := ResolveName(rv.Refs, base)
	if err == nil {
		return ref.Target, ref.Name, nil
	}
	if !errors.Is(err, ErrRefNotFound) {
		return "", "", err
	}

	if object.IsHexPrefix(base) {
		h, err := rv.Objects.LookupPrefix(base)
		if err == nil {
			return h, "", nil
		}
		if errors.Is(err, object.ErrAmbiguousPrefix) {
			return "", "", fmt.Errorf("resolve %q: %w", expr, err)
		}
		if !errors.Is(err, object.ErrNotFound) {
			return "", "", fmt.Errorf("resolve %q: %w", expr, err)
		}
	}
	return "", "", &NotFoundError{Expr: expr}
}

// commitAt peels h to a commit and reads it; ancestry steps through
// annotated tags work because the tag peels to its commit first.
func (rv *Resolver) commitAt(h object.Hash, expr string) (*object.CommitObj, error) {
	commitHash, _, err := Peel(rv.Objects, h, object.TypeCommit)
	if err != nil {
		var peelErr *PeelError
		if errors.As(err, &peelErr) {
			return nil, &WrongKindError{Expr: expr, Type: peelErr.From}
		}
		return nil, err
	}
	_, data, err := rv.Objects.Lookup(commitHash)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", expr, err)
	}
	commit, err := object.UnmarshalCommit(data)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", expr, err)
	}
	return commit, nil
}

// treeEntryAt walks slash-separated path segments through nested trees.
func (rv *Resolver) treeEntryAt(treeHash object.Hash, path, expr string) (object.Hash, error) {
	cur := treeHash
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			return "", &NotFoundError{Expr: expr, Detail: fmt.Sprintf("empty segment in path %q", path)}
		}
		objType, data, err := rv.Objects.Lookup(cur)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", expr, err)
		}
		if objType != object.TypeTree {
			return "", &NotFoundError{Expr: expr, Detail: fmt.Sprintf("path %q crosses a non-tree entry", path)}
		}
		tree, err := object.UnmarshalTree(data)
		if err != nil {
			return "", fmt.Errorf("resolve %q: %w", expr, err)
		}
		entry, ok := tree.Entry(segment)
		if !ok {
			return "", &NotFoundError{Expr: expr, Detail: fmt.Sprintf("path %q not found in tree", path)}
		}
		cur = entry.Hash
	}
	return cur, nil
}
