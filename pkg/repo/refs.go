package repo

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/revision"
)

var ErrRefCASMismatch = errors.New("ref compare-and-swap mismatch")
var ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: %s (old=%s new=%s): %v",
		e.Ref,
		ErrRefUpdatedButReflogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second

	maxSymbolicDepth = 10

	symrefPrefix = "ref: "
)

// rootPointers are the well-known references stored at the repository root
// rather than under refs/.
var rootPointers = map[string]bool{
	"HEAD":       true,
	"ORIG_HEAD":  true,
	"MERGE_HEAD": true,
	"FETCH_HEAD": true,
}

func validRefName(name string) bool {
	return rootPointers[name] || strings.HasPrefix(name, "refs/")
}

// LookupRef resolves an exact fully-qualified reference name, following
// symbolic entries ("ref: refs/heads/x") to the terminal direct reference.
// The returned Reference carries the final name, so callers learn which ref
// a symbolic HEAD currently designates. Short-name disambiguation lives in
// the revision package, not here.
func (r *Repo) LookupRef(name string) (revision.Reference, error) {
	return r.lookupRef(name, 0)
}

func (r *Repo) lookupRef(name string, depth int) (revision.Reference, error) {
	if depth > maxSymbolicDepth {
		return revision.Reference{}, fmt.Errorf("lookup ref %q: symbolic chain too deep", name)
	}
	if !validRefName(name) {
		return revision.Reference{}, fmt.Errorf("lookup ref %q: %w", name, revision.ErrRefNotFound)
	}

	data, err := util.ReadFile(r.fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return revision.Reference{}, fmt.Errorf("lookup ref %q: %w", name, revision.ErrRefNotFound)
		}
		return revision.Reference{}, fmt.Errorf("lookup ref %q: %w", name, err)
	}

	content := strings.TrimSpace(string(data))
	if strings.HasPrefix(content, symrefPrefix) {
		return r.lookupRef(strings.TrimPrefix(content, symrefPrefix), depth+1)
	}
	if !object.ValidHash(object.Hash(content)) {
		return revision.Reference{}, fmt.Errorf("lookup ref %q: malformed target %q", name, content)
	}
	return revision.Reference{Name: name, Target: object.Hash(content)}, nil
}

// Head reads HEAD. A symbolic HEAD returns the ref path it designates
// (e.g. "refs/heads/main"); a detached HEAD returns the raw hash string.
func (r *Repo) Head() (string, error) {
	data, err := util.ReadFile(r.fs, "HEAD")
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimSpace(string(data))
	return strings.TrimPrefix(content, symrefPrefix), nil
}

// SetHead points HEAD at a ref path (symbolic) or at a raw hash (detached).
func (r *Repo) SetHead(target string) error {
	target = strings.TrimSpace(target)
	var content string
	switch {
	case strings.HasPrefix(target, "refs/"):
		content = symrefPrefix + target + "\n"
	case object.ValidHash(object.Hash(target)):
		content = target + "\n"
	default:
		return fmt.Errorf("set head: target %q is neither a ref path nor a hash", target)
	}
	if err := util.WriteFile(r.fs, "HEAD", []byte(content), 0o644); err != nil {
		return fmt.Errorf("set head: %w", err)
	}
	return nil
}

// CurrentBranch returns the branch name HEAD designates, or "" when HEAD is
// detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	const prefix = "refs/heads/"
	if strings.HasPrefix(head, prefix) {
		return strings.TrimPrefix(head, prefix), nil
	}
	return "", nil
}

// UpdateRef writes a hash to the named ref, appending a reflog entry.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefCAS(name, h)
}

// UpdateRefCAS writes a hash to the named ref using lockfile + rename atomic
// semantics. If expectedOld is provided, the update only succeeds when the
// current ref hash matches it.
//
// Reflog append happens after the ref rename; if the append fails, the ref
// update remains committed and a RefUpdateReflogError is returned.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) error {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	if !validRefName(name) {
		return fmt.Errorf("update ref %q: not a valid ref name", name)
	}
	if !object.ValidHash(h) {
		return fmt.Errorf("update ref %q: invalid target hash %q", name, h)
	}
	hasExpectedOld := len(expectedOld) == 1
	wantOldHash := object.Hash("")
	if hasExpectedOld {
		wantOldHash = expectedOld[0]
	}

	if dir := refParentDir(name); dir != "" {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("update ref %q: mkdir: %w", name, err)
		}
	}

	lockPath := name + ".lock"
	lockFile, err := acquireRefLock(r.fs, lockPath)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	cleanupLock := true
	defer func() {
		if lockFile != nil {
			_ = lockFile.Close()
		}
		if cleanupLock {
			_ = r.fs.Remove(lockPath)
		}
	}()

	oldHash, err := readRefHash(r.fs, name)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if hasExpectedOld && oldHash != wantOldHash {
		return fmt.Errorf(
			"update ref %q: %w (expected %s, found %s)",
			name,
			ErrRefCASMismatch,
			wantOldHash,
			oldHash,
		)
	}

	if _, err := lockFile.Write([]byte(string(h) + "\n")); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	if err := lockFile.Close(); err != nil {
		lockFile = nil
		return fmt.Errorf("update ref %q: close: %w", name, err)
	}
	lockFile = nil

	if err := r.fs.Rename(lockPath, name); err != nil {
		return fmt.Errorf("update ref %q: rename: %w", name, err)
	}
	cleanupLock = false

	if err := r.appendReflog(name, oldHash, h, "update"); err != nil {
		return &RefUpdateReflogError{
			Ref:     name,
			OldHash: oldHash,
			NewHash: h,
			Err:     err,
		}
	}

	return nil
}

// DeleteRef removes a reference under refs/.
func (r *Repo) DeleteRef(name string) error {
	if !strings.HasPrefix(name, "refs/") {
		return fmt.Errorf("delete ref %q: only refs/ references can be deleted", name)
	}
	if err := r.fs.Remove(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete ref %q: %w", name, revision.ErrRefNotFound)
		}
		return fmt.Errorf("delete ref %q: %w", name, err)
	}
	return nil
}

// ListRefs lists references whose fully-qualified name starts with prefix
// (all of refs/ when prefix is empty), mapped to their direct targets.
func (r *Repo) ListRefs(prefix string) (map[string]object.Hash, error) {
	refs := make(map[string]object.Hash)
	err := util.Walk(r.fs, "refs", func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}
		if prefix != "" && !strings.HasPrefix(path, prefix) {
			return nil
		}
		data, err := util.ReadFile(r.fs, path)
		if err != nil {
			return err
		}
		refs[path] = object.Hash(strings.TrimSpace(string(data)))
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("list refs: %w", err)
	}
	return refs, nil
}

// RefNames returns the sorted fully-qualified names from ListRefs.
func (r *Repo) RefNames(prefix string) ([]string, error) {
	refs, err := r.ListRefs(prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(refs))
	for name := range refs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func refParentDir(name string) string {
	idx := strings.LastIndexByte(name, '/')
	if idx <= 0 {
		return ""
	}
	return name[:idx]
}

func acquireRefLock(fs billy.Filesystem, lockPath string) (billy.File, error) {
	deadline := time.Now().Add(refLockWaitLimit)
	for {
		f, err := fs.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, nil
		}
		if errors.Is(err, os.ErrExist) {
			if time.Now().After(deadline) {
				return nil, fmt.Errorf("timeout waiting for lock %q", lockPath)
			}
			time.Sleep(refLockRetryDelay)
			continue
		}
		return nil, err
	}
}

func readRefHash(fs billy.Filesystem, refPath string) (object.Hash, error) {
	data, err := util.ReadFile(fs, refPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return object.Hash(strings.TrimSpace(string(data))), nil
}
