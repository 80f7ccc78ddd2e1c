package repo

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/revision"
)

func TestLookupRefExactAndSymbolic(t *testing.T) {
	r := testRepo(t)
	c1 := writeTestCommit(t, r, "c1")
	if err := r.UpdateRef("refs/heads/main", c1); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	ref, err := r.LookupRef("refs/heads/main")
	if err != nil {
		t.Fatalf("LookupRef: %v", err)
	}
	if ref.Target != c1 {
		t.Errorf("Target: got %s, want %s", ref.Target, c1)
	}

	// HEAD is symbolic; lookup follows it and reports the terminal name.
	ref, err = r.LookupRef("HEAD")
	if err != nil {
		t.Fatalf("LookupRef HEAD: %v", err)
	}
	if ref.Name != "refs/heads/main" {
		t.Errorf("Name: got %q, want refs/heads/main", ref.Name)
	}
	if ref.Target != c1 {
		t.Errorf("Target via HEAD: got %s, want %s", ref.Target, c1)
	}

	// Exact names only: no short-name fallback at this layer.
	if _, err := r.LookupRef("main"); !errors.Is(err, revision.ErrRefNotFound) {
		t.Errorf("LookupRef short name: got %v, want ErrRefNotFound", err)
	}
	if _, err := r.LookupRef("refs/heads/nope"); !errors.Is(err, revision.ErrRefNotFound) {
		t.Errorf("LookupRef missing: got %v, want ErrRefNotFound", err)
	}
}

func TestUpdateRefCAS(t *testing.T) {
	r := testRepo(t)
	c1 := writeTestCommit(t, r, "c1")
	c2 := writeTestCommit(t, r, "c2", c1)

	// Empty expected-old means "create only".
	if err := r.UpdateRefCAS("refs/heads/main", c1, ""); err != nil {
		t.Fatalf("UpdateRefCAS create: %v", err)
	}
	if err := r.UpdateRefCAS("refs/heads/main", c2, ""); !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("UpdateRefCAS create over existing: got %v, want ErrRefCASMismatch", err)
	}

	if err := r.UpdateRefCAS("refs/heads/main", c2, c1); err != nil {
		t.Fatalf("UpdateRefCAS advance: %v", err)
	}
	if err := r.UpdateRefCAS("refs/heads/main", c1, c1); !errors.Is(err, ErrRefCASMismatch) {
		t.Fatalf("UpdateRefCAS stale old: got %v, want ErrRefCASMismatch", err)
	}

	ref, err := r.LookupRef("refs/heads/main")
	if err != nil {
		t.Fatalf("LookupRef: %v", err)
	}
	if ref.Target != c2 {
		t.Errorf("Target after CAS: got %s, want %s", ref.Target, c2)
	}
}

func TestUpdateRefConcurrent(t *testing.T) {
	// Disk-backed: the lockfile protocol is what makes concurrent updates
	// safe, and memfs makes no concurrency promises of its own.
	r, err := Init(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	c1 := writeTestCommit(t, r, "c1")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.UpdateRef("refs/heads/race", c1)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("concurrent UpdateRef %d: %v", i, err)
		}
	}
	ref, err := r.LookupRef("refs/heads/race")
	if err != nil {
		t.Fatalf("LookupRef: %v", err)
	}
	if ref.Target != c1 {
		t.Errorf("Target: got %s, want %s", ref.Target, c1)
	}
}

func TestUpdateRefValidation(t *testing.T) {
	r := testRepo(t)
	c1 := writeTestCommit(t, r, "c1")

	if err := r.UpdateRef("not-a-ref", c1); err == nil {
		t.Error("UpdateRef outside refs/: expected error")
	}
	if err := r.UpdateRef("refs/heads/x", object.Hash("junk")); err == nil {
		t.Error("UpdateRef with invalid hash: expected error")
	}
}

func TestDeleteRef(t *testing.T) {
	r := testRepo(t)
	c1 := writeTestCommit(t, r, "c1")
	if err := r.UpdateRef("refs/tags/v1", c1); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	if err := r.DeleteRef("refs/tags/v1"); err != nil {
		t.Fatalf("DeleteRef: %v", err)
	}
	if _, err := r.LookupRef("refs/tags/v1"); !errors.Is(err, revision.ErrRefNotFound) {
		t.Errorf("LookupRef after delete: got %v, want ErrRefNotFound", err)
	}
	if err := r.DeleteRef("refs/tags/v1"); !errors.Is(err, revision.ErrRefNotFound) {
		t.Errorf("DeleteRef twice: got %v, want ErrRefNotFound", err)
	}
	if err := r.DeleteRef("HEAD"); err == nil {
		t.Error("DeleteRef HEAD: expected error")
	}
}

func TestListRefs(t *testing.T) {
	r := testRepo(t)
	c1 := writeTestCommit(t, r, "c1")
	for _, name := range []string{
		"refs/heads/main",
		"refs/heads/feature/x",
		"refs/tags/v1",
	} {
		if err := r.UpdateRef(name, c1); err != nil {
			t.Fatalf("UpdateRef %s: %v", name, err)
		}
	}

	all, err := r.ListRefs("")
	if err != nil {
		t.Fatalf("ListRefs: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListRefs: got %d refs, want 3", len(all))
	}
	if all["refs/heads/feature/x"] != c1 {
		t.Errorf("nested ref target: got %s, want %s", all["refs/heads/feature/x"], c1)
	}

	heads, err := r.RefNames("refs/heads/")
	if err != nil {
		t.Fatalf("RefNames: %v", err)
	}
	want := []string{"refs/heads/feature/x", "refs/heads/main"}
	if len(heads) != len(want) {
		t.Fatalf("RefNames: got %v, want %v", heads, want)
	}
	for i := range want {
		if heads[i] != want[i] {
			t.Errorf("RefNames[%d]: got %q, want %q", i, heads[i], want[i])
		}
	}
}

func TestSetHeadDetached(t *testing.T) {
	r := testRepo(t)
	c1 := writeTestCommit(t, r, "c1")

	if err := r.SetHead(string(c1)); err != nil {
		t.Fatalf("SetHead detached: %v", err)
	}
	branch, err := r.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch: %v", err)
	}
	if branch != "" {
		t.Errorf("CurrentBranch detached: got %q, want empty", branch)
	}

	ref, err := r.LookupRef("HEAD")
	if err != nil {
		t.Fatalf("LookupRef detached HEAD: %v", err)
	}
	if ref.Target != c1 {
		t.Errorf("detached target: got %s, want %s", ref.Target, c1)
	}

	if err := r.SetHead("garbage"); err == nil || !strings.Contains(err.Error(), "neither") {
		t.Errorf("SetHead garbage: got %v, want validation error", err)
	}
}
