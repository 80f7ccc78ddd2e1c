package revision

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/ijlyttle/gert/pkg/object"
)

// resolveFixture is a small repository graph:
//
//	c1 <- c2 <--- merge   (main)
//	  \-- side --/
//
// with an annotated tag chain v2 -> v1 -> c2, a nested tree on every
// commit, and reflogs for main and HEAD.
type resolveFixture struct {
	store *object.Store
	refs  *fakeRefs
	rv    *Resolver

	readme, inner           object.Hash
	subtree, rootTree       object.Hash
	c1, c2, side, merge     object.Hash
	tagV1, tagV2, tagOfTree object.Hash
}

func newResolveFixture(t *testing.T) *resolveFixture {
	t.Helper()
	f := &resolveFixture{store: object.NewStore(memfs.New())}
	s := f.store

	var err error
	f.readme, err = s.WriteBlob(&object.Blob{Data: []byte("readme\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	f.inner, err = s.WriteBlob(&object.Blob{Data: []byte("inner\n")})
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	f.subtree, err = s.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Mode: object.TreeModeFile, Hash: f.inner, Name: "inner.txt"},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}
	f.rootTree, err = s.WriteTree(&object.TreeObj{Entries: []object.TreeEntry{
		{Mode: object.TreeModeDir, Hash: f.subtree, Name: "dir"},
		{Mode: object.TreeModeFile, Hash: f.readme, Name: "file.txt"},
	}})
	if err != nil {
		t.Fatalf("WriteTree: %v", err)
	}

	commit := func(message string, parents ...object.Hash) object.Hash {
		h, err := s.WriteCommit(&object.CommitObj{
			TreeHash:  f.rootTree,
			Parents:   parents,
			Author:    "a <a@b>",
			Timestamp: 1700000000,
			Message:   message,
		})
		if err != nil {
			t.Fatalf("WriteCommit %q: %v", message, err)
		}
		return h
	}
	f.c1 = commit("c1")
	f.c2 = commit("c2", f.c1)
	f.side = commit("side", f.c1)
	f.merge = commit("merge", f.c2, f.side)

	f.tagV1 = writeTagFixture(t, s, "v1", f.c2, object.TypeCommit)
	f.tagV2 = writeTagFixture(t, s, "v2", f.tagV1, object.TypeTag)
	f.tagOfTree = writeTagFixture(t, s, "tree-snap", f.rootTree, object.TypeTree)

	f.refs = &fakeRefs{
		refs: map[string]object.Hash{
			"HEAD":               f.merge,
			"refs/heads/main":    f.merge,
			"refs/heads/dev":     f.c2,
			"refs/heads/main~1":  f.side,
			"refs/heads/shared":  f.c2,
			"refs/tags/shared":   f.c1,
			"refs/tags/v1":       f.tagV1,
			"refs/tags/v2":       f.tagV2,
			"refs/tags/snapshot": f.tagOfTree,
		},
		reflogs: map[string][]object.Hash{
			"refs/heads/main": {f.merge, f.c2, f.c1},
			"HEAD":            {f.merge, f.c2},
		},
	}
	f.rv = &Resolver{Objects: storeSource{store: s}, Refs: f.refs}
	return f
}

func (f *resolveFixture) mustResolve(t *testing.T, expr string) Resolved {
	t.Helper()
	res, err := f.rv.Resolve(expr)
	if err != nil {
		t.Fatalf("Resolve(%q): %v", expr, err)
	}
	return res
}

func TestResolveFullHash(t *testing.T) {
	f := newResolveFixture(t)
	res := f.mustResolve(t, string(f.c2))
	if res.Hash != f.c2 || res.Type != object.TypeCommit {
		t.Errorf("Resolve(full hash): got %s (%s), want %s (commit)", res.Hash, res.Type, f.c2)
	}
}

func TestResolveHashPrefix(t *testing.T) {
	f := newResolveFixture(t)
	res := f.mustResolve(t, string(f.c2[:12]))
	if res.Hash != f.c2 {
		t.Errorf("Resolve(prefix): got %s, want %s", res.Hash, f.c2)
	}
}

func TestResolveBranchAndHEAD(t *testing.T) {
	f := newResolveFixture(t)
	for _, expr := range []string{"main", "refs/heads/main", "HEAD", "@"} {
		res := f.mustResolve(t, expr)
		if res.Hash != f.merge {
			t.Errorf("Resolve(%q): got %s, want %s", expr, res.Hash, f.merge)
		}
	}
}

func TestResolveTagPeelsToCommit(t *testing.T) {
	f := newResolveFixture(t)

	// v1 is an annotated tag, v2 a tag of that tag; both land on c2.
	for _, expr := range []string{"v1", "v2", "refs/tags/v2"} {
		res := f.mustResolve(t, expr)
		if res.Hash != f.c2 || res.Type != object.TypeCommit {
			t.Errorf("Resolve(%q): got %s (%s), want %s (commit)", expr, res.Hash, res.Type, f.c2)
		}
	}
}

func TestResolveParents(t *testing.T) {
	f := newResolveFixture(t)
	tests := map[string]object.Hash{
		"main^":   f.c2,
		"main^1":  f.c2,
		"main^2":  f.side,
		"main^^":  f.c1,
		"main~1":  f.side, // literal branch name, see below
		"dev^":    f.c1,
		"v1^":     f.c1, // ancestry through an annotated tag
		"main~0":  f.merge,
		"main^0":  f.merge,
		"main^~1": f.c1,
	}
	for expr, want := range tests {
		res := f.mustResolve(t, expr)
		if res.Hash != want {
			t.Errorf("Resolve(%q): got %s, want %s", expr, res.Hash, want)
		}
	}
}

func TestResolveLiteralNameBeatsSuffixes(t *testing.T) {
	f := newResolveFixture(t)

	// A branch literally named "main~1" must win over interpreting ~1.
	res := f.mustResolve(t, "main~1")
	if res.Hash != f.side {
		t.Errorf("Resolve(main~1): got %s, want literal branch target %s", res.Hash, f.side)
	}

	// Against a hash base the suffix interpretation still applies.
	res = f.mustResolve(t, string(f.merge)+"~1")
	if res.Hash != f.c2 {
		t.Errorf("Resolve(hash~1): got %s, want %s", res.Hash, f.c2)
	}
}

func TestResolveTildeEqualsRepeatedCaret(t *testing.T) {
	f := newResolveFixture(t)
	tilde := f.mustResolve(t, "dev~1")
	caret := f.mustResolve(t, "dev^")
	if tilde.Hash != caret.Hash {
		t.Errorf("dev~1 = %s, dev^ = %s; want equal", tilde.Hash, caret.Hash)
	}

	tilde2 := f.mustResolve(t, string(f.merge)+"~2")
	caret2 := f.mustResolve(t, string(f.merge)+"^^")
	if tilde2.Hash != caret2.Hash || tilde2.Hash != f.c1 {
		t.Errorf("~2 = %s, ^^ = %s; want both %s", tilde2.Hash, caret2.Hash, f.c1)
	}
}

func TestResolveNotAncestor(t *testing.T) {
	f := newResolveFixture(t)
	tests := []struct {
		expr   string
		parent int
		have   int
	}{
		{"main^3", 3, 2},
		{"dev^2", 2, 1},
		{"main~5", 1, 0}, // walks past the root commit
	}
	for _, tc := range tests {
		_, err := f.rv.Resolve(tc.expr)
		var naErr *NotAncestorError
		if !errors.As(err, &naErr) {
			t.Errorf("Resolve(%q): got %v, want NotAncestorError", tc.expr, err)
			continue
		}
		if naErr.Parent != tc.parent || naErr.Have != tc.have {
			t.Errorf("Resolve(%q): got parent %d/have %d, want %d/%d",
				tc.expr, naErr.Parent, naErr.Have, tc.parent, tc.have)
		}
	}
}

func TestResolveBranchShadowsTag(t *testing.T) {
	f := newResolveFixture(t)
	res := f.mustResolve(t, "shared")
	if res.Hash != f.c2 {
		t.Errorf("Resolve(shared): got %s, want branch target %s", res.Hash, f.c2)
	}
}

func TestResolvePeelToTree(t *testing.T) {
	f := newResolveFixture(t)

	res := f.mustResolve(t, string(f.c2[:12])+"^{tree}")
	if res.Hash != f.rootTree || res.Type != object.TypeTree {
		t.Errorf("Resolve(prefix^{tree}): got %s (%s), want %s (tree)", res.Hash, res.Type, f.rootTree)
	}

	// Through the tag chain as well.
	res = f.mustResolve(t, "v2^{tree}")
	if res.Hash != f.rootTree {
		t.Errorf("Resolve(v2^{tree}): got %s, want %s", res.Hash, f.rootTree)
	}
}

func TestResolvePeelEmptyStopsAtNonTag(t *testing.T) {
	f := newResolveFixture(t)

	res := f.mustResolve(t, "v2^{}")
	if res.Hash != f.c2 || res.Type != object.TypeCommit {
		t.Errorf("Resolve(v2^{}): got %s (%s), want %s (commit)", res.Hash, res.Type, f.c2)
	}

	// ^{} on a tag of a tree lands on the tree and stays there.
	res = f.mustResolve(t, "snapshot^{}")
	if res.Hash != f.rootTree || res.Type != object.TypeTree {
		t.Errorf("Resolve(snapshot^{}): got %s (%s), want %s (tree)", res.Hash, res.Type, f.rootTree)
	}
}

func TestResolveReflog(t *testing.T) {
	f := newResolveFixture(t)
	tests := map[string]object.Hash{
		"main@{0}": f.merge,
		"main@{1}": f.c2,
		"main@{2}": f.c1,
		"@{1}":     f.c2, // bare @{N} counts from HEAD
	}
	for expr, want := range tests {
		res := f.mustResolve(t, expr)
		if res.Hash != want {
			t.Errorf("Resolve(%q): got %s, want %s", expr, res.Hash, want)
		}
	}

	_, err := f.rv.Resolve("main@{9}")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Errorf("Resolve(main@{9}): got %v, want NotFoundError", err)
	}

	// Reflog lookups need a named base, not a raw hash.
	_, err = f.rv.Resolve(string(f.merge) + "@{1}")
	if !errors.As(err, &nfErr) {
		t.Errorf("Resolve(hash@{1}): got %v, want NotFoundError", err)
	}
}

func TestResolvePath(t *testing.T) {
	f := newResolveFixture(t)

	res := f.mustResolve(t, "HEAD:file.txt")
	if res.Hash != f.readme || res.Type != object.TypeBlob {
		t.Errorf("Resolve(HEAD:file.txt): got %s (%s), want %s (blob)", res.Hash, res.Type, f.readme)
	}

	res = f.mustResolve(t, "HEAD:dir/inner.txt")
	if res.Hash != f.inner {
		t.Errorf("Resolve(HEAD:dir/inner.txt): got %s, want %s", res.Hash, f.inner)
	}

	res = f.mustResolve(t, "HEAD:dir")
	if res.Hash != f.subtree || res.Type != object.TypeTree {
		t.Errorf("Resolve(HEAD:dir): got %s (%s), want %s (tree)", res.Hash, res.Type, f.subtree)
	}

	// Empty path designates the root tree.
	res = f.mustResolve(t, "HEAD:")
	if res.Hash != f.rootTree {
		t.Errorf("Resolve(HEAD:): got %s, want %s", res.Hash, f.rootTree)
	}

	_, err := f.rv.Resolve("HEAD:dir/missing.txt")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Resolve(missing path): got %v, want NotFoundError", err)
	}
	if nfErr.Detail == "" {
		t.Errorf("NotFoundError detail: empty, want path context")
	}
}

func TestResolveWrongKind(t *testing.T) {
	f := newResolveFixture(t)

	// A blob hash with no peel operator does not designate a commit.
	_, err := f.rv.Resolve(string(f.readme))
	var wkErr *WrongKindError
	if !errors.As(err, &wkErr) {
		t.Fatalf("Resolve(blob hash): got %v, want WrongKindError", err)
	}
	if wkErr.Type != object.TypeBlob {
		t.Errorf("WrongKindError type: got %s, want blob", wkErr.Type)
	}

	// A tag of a tree is not commit-reachable either.
	_, err = f.rv.Resolve("snapshot")
	if !errors.As(err, &wkErr) {
		t.Fatalf("Resolve(snapshot): got %v, want WrongKindError", err)
	}
	if wkErr.Type != object.TypeTag {
		t.Errorf("WrongKindError type: got %s, want tag", wkErr.Type)
	}
}

func TestResolveParseErrorSurfaces(t *testing.T) {
	f := newResolveFixture(t)
	_, err := f.rv.Resolve("foo^^q")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Resolve(foo^^q): got %v, want ParseError", err)
	}
}

func TestResolveHugeCountsFailWithoutPanic(t *testing.T) {
	f := newResolveFixture(t)

	// 19+ digits would wrap a naive accumulator negative: ^N must not
	// index out of range, and ~N must not silently return the base.
	for _, expr := range []string{
		"main^9999999999999999999",
		"main~9999999999999999999",
	} {
		_, err := f.rv.Resolve(expr)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("Resolve(%q): got %v, want ParseError", expr, err)
		}
	}
}

func TestResolveSurfacesRefLookupFailure(t *testing.T) {
	f := newResolveFixture(t)
	refs := &brokenRefs{fakeRefs: f.refs, broken: "refs/heads/bad"}
	rv := &Resolver{Objects: storeSource{store: f.store}, Refs: refs}

	_, err := rv.Resolve("bad")
	if err == nil || !strings.Contains(err.Error(), "malformed target") {
		t.Fatalf("Resolve(bad): got %v, want lookup failure surfaced", err)
	}
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		t.Errorf("Resolve(bad): lookup failure masked as NotFoundError")
	}
}

// brokenRefs fails lookups of one name with a non-not-found error, the way
// a malformed ref file would.
type brokenRefs struct {
	fakeRefs *fakeRefs
	broken   string
}

func (b *brokenRefs) LookupRef(name string) (Reference, error) {
	if name == b.broken {
		return Reference{}, fmt.Errorf("lookup ref %q: malformed target", name)
	}
	return b.fakeRefs.LookupRef(name)
}

func (b *brokenRefs) ReflogAt(name string, n int) (object.Hash, error) {
	return b.fakeRefs.ReflogAt(name, n)
}

func TestResolveNotFound(t *testing.T) {
	f := newResolveFixture(t)
	for _, expr := range []string{"nope", "nope~1", "deadbeef"} {
		_, err := f.rv.Resolve(expr)
		var nfErr *NotFoundError
		if !errors.As(err, &nfErr) {
			t.Errorf("Resolve(%q): got %v, want NotFoundError", expr, err)
			continue
		}
		if nfErr.Expr != expr {
			t.Errorf("NotFoundError expr: got %q, want %q", nfErr.Expr, expr)
		}
	}
}

func TestResolveAmbiguousPrefixSurfaces(t *testing.T) {
	f := newResolveFixture(t)
	rv := &Resolver{
		Objects: ambiguousObjects{inner: storeSource{store: f.store}},
		Refs:    f.refs,
	}
	_, err := rv.Resolve("abcd12")
	if !errors.Is(err, object.ErrAmbiguousPrefix) {
		t.Errorf("Resolve(ambiguous prefix): got %v, want ErrAmbiguousPrefix", err)
	}
}

// ambiguousObjects reports every prefix lookup as ambiguous.
type ambiguousObjects struct {
	inner ObjectSource
}

func (a ambiguousObjects) Lookup(h object.Hash) (object.ObjectType, []byte, error) {
	return a.inner.Lookup(h)
}

func (a ambiguousObjects) LookupPrefix(prefix string) (object.Hash, error) {
	return "", fmt.Errorf("object prefix %s: %w", prefix, object.ErrAmbiguousPrefix)
}

func TestResolveCommitReadsCommit(t *testing.T) {
	f := newResolveFixture(t)

	h, commit, err := f.rv.ResolveCommit("v1")
	if err != nil {
		t.Fatalf("ResolveCommit: %v", err)
	}
	if h != f.c2 {
		t.Errorf("ResolveCommit hash: got %s, want %s", h, f.c2)
	}
	if commit.Message != "c2" {
		t.Errorf("ResolveCommit message: got %q, want %q", commit.Message, "c2")
	}

	_, _, err = f.rv.ResolveCommit("HEAD^{tree}")
	var wkErr *WrongKindError
	if !errors.As(err, &wkErr) {
		t.Errorf("ResolveCommit(tree): got %v, want WrongKindError", err)
	}
}

func TestResolveIsPure(t *testing.T) {
	f := newResolveFixture(t)
	before := len(f.refs.refs)
	for _, expr := range []string{"main", "main^2", "v2^{tree}", "HEAD:dir/inner.txt"} {
		f.mustResolve(t, expr)
	}
	if len(f.refs.refs) != before {
		t.Errorf("resolution mutated the reference namespace")
	}
}
