// Package revision resolves human-supplied revision expressions (branch
// names, tags, abbreviated hashes, ancestry suffixes) against a repository's
// object and reference graph. Resolution is read-only: no operation mutates
// the reference namespace or the object store, so a Resolver is safe for
// concurrent use whenever its sources are.
package revision

import (
	"strings"

	"github.com/ijlyttle/gert/pkg/object"
)

// ObjectSource is the read-only object store view the resolver consumes.
// Lookup of a missing hash satisfies errors.Is(err, object.ErrNotFound);
// an abbreviation shared by several objects satisfies
// errors.Is(err, object.ErrAmbiguousPrefix).
type ObjectSource interface {
	Lookup(h object.Hash) (object.ObjectType, []byte, error)
	LookupPrefix(prefix string) (object.Hash, error)
}

// RefSource is the reference namespace view the resolver consumes. LookupRef
// takes exact fully-qualified names only ("HEAD", "refs/heads/main");
// disambiguation of short names is the resolver's job. A missing reference
// satisfies errors.Is(err, ErrRefNotFound).
type RefSource interface {
	LookupRef(name string) (Reference, error)
	ReflogAt(name string, n int) (object.Hash, error)
}

// Reference is a resolved named pointer: the fully-qualified name reached
// after following any symbolic links, plus the hash it points at.
type Reference struct {
	Name   string
	Target object.Hash
}

// Short returns the reference name with the standard namespace prefix
// stripped, for display.
func (r Reference) Short() string {
	for _, prefix := range []string{"refs/heads/", "refs/tags/", "refs/remotes/", "refs/"} {
		if strings.HasPrefix(r.Name, prefix) {
			return strings.TrimPrefix(r.Name, prefix)
		}
	}
	return r.Name
}

// OpKind discriminates suffix operators in a parsed expression.
type OpKind int

const (
	OpParent   OpKind = iota // ^N: N-th parent, 1-indexed
	OpAncestor               // ~N: walk N first-parent generations
	OpPeel                   // ^{type}: dereference until type is reached
	OpReflog                 // @{N}: value of the ref N updates ago
	OpPath                   // :path: entry at path within the tree
)

func (k OpKind) String() string {
	switch k {
	case OpParent:
		return "parent"
	case OpAncestor:
		return "ancestor"
	case OpPeel:
		return "peel"
	case OpReflog:
		return "reflog"
	case OpPath:
		return "path"
	}
	return "unknown"
}

// SuffixOp is one operator applied to the base of a revision expression.
// Count is used by parent, ancestor, and reflog ops; Target by peel ops
// (empty Target means "stop at the first non-tag object"); Path by path ops.
type SuffixOp struct {
	Kind   OpKind
	Count  int
	Target object.ObjectType
	Path   string
}

// Expression is a parsed revision expression: an uninterpreted base selector
// plus the operators to apply to it, in order. Immutable once parsed.
type Expression struct {
	Base string
	Ops  []SuffixOp
}

// Resolved is the terminal output of resolution: a hash whose object kind is
// known, plus the expression that produced it, kept for diagnostics. Type is
// commit unless the expression's final operator designated another kind.
type Resolved struct {
	Hash object.Hash
	Type object.ObjectType
	Expr string
}
