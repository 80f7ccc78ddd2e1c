package repo

import (
	"fmt"
	"sort"

	"github.com/ijlyttle/gert/pkg/object"
)

// FsckReport summarizes an integrity check: every loose object re-hashed,
// every ref checked against the store, and the reachable set computed from
// all ref and HEAD roots.
type FsckReport struct {
	Objects     int
	Refs        int
	BrokenRefs  []string
	Unreachable []object.Hash
}

// Fsck verifies object content hashes and reference targets. Corrupt
// objects fail the check; dangling refs and unreachable objects are
// reported, not treated as errors.
func (r *Repo) Fsck() (*FsckReport, error) {
	report := &FsckReport{}

	verified, err := r.Store.VerifyObjects()
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	report.Objects = verified

	refs, err := r.ListRefs("")
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	report.Refs = len(refs)

	var roots []object.Hash
	for name, h := range refs {
		if !r.Store.Has(h) {
			report.BrokenRefs = append(report.BrokenRefs, fmt.Sprintf("%s -> %s", name, h))
			continue
		}
		roots = append(roots, h)
	}
	sort.Strings(report.BrokenRefs)

	if ref, err := r.LookupRef("HEAD"); err == nil {
		roots = append(roots, ref.Target)
	}

	reachable, err := r.Store.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	all, err := r.Store.Objects()
	if err != nil {
		return nil, fmt.Errorf("fsck: %w", err)
	}
	for _, h := range all {
		if _, ok := reachable[h]; !ok {
			report.Unreachable = append(report.Unreachable, h)
		}
	}

	return report, nil
}
