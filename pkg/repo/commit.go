package repo

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ijlyttle/gert/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitOptions carries the optional parts of commit creation. A missing
// author falls back to the configured user name.
type CommitOptions struct {
	Author string
	Signer CommitSigner
}

// CommitTree creates a commit object from an existing tree and parent set:
// the plumbing-level operation, with no staging area or working tree
// involved. The tree and every parent must already exist in the store. No
// ref is moved; callers point refs at the result explicitly.
func (r *Repo) CommitTree(tree object.Hash, parents []object.Hash, message string, opts CommitOptions) (object.Hash, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("commit-tree: message is required")
	}
	if _, err := r.Store.ReadTree(tree); err != nil {
		return "", fmt.Errorf("commit-tree: tree %s: %w", tree, err)
	}
	for _, p := range parents {
		if _, err := r.Store.ReadCommit(p); err != nil {
			return "", fmt.Errorf("commit-tree: parent %s: %w", p, err)
		}
	}

	author := strings.TrimSpace(opts.Author)
	if author == "" {
		cfg, err := r.ReadConfig()
		if err != nil {
			return "", fmt.Errorf("commit-tree: %w", err)
		}
		author = cfg.User.Name
	}
	if author == "" {
		author = "unknown"
	}

	commit := &object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    author,
		Timestamp: time.Now().Unix(),
		Message:   message,
	}
	if opts.Signer != nil {
		signature, err := opts.Signer(object.CommitSigningPayload(commit))
		if err != nil {
			return "", fmt.Errorf("commit-tree: sign: %w", err)
		}
		commit.Signature = signature
	}

	commitHash, err := r.Store.WriteCommit(commit)
	if err != nil {
		return "", fmt.Errorf("commit-tree: write: %w", err)
	}
	return commitHash, nil
}

// LogEntry pairs a commit with its hash for display.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits newest first. A limit
// of zero means no limit.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start

	for limit <= 0 || len(entries) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return entries, nil
}
