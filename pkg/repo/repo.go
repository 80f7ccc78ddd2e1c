// Package repo implements the repository layer the revision engine resolves
// against: a bare, worktree-less store of objects, references, reflogs, and
// configuration under a .gert directory.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/ijlyttle/gert/pkg/object"
)

// GertDirName is the repository dot directory.
const GertDirName = ".gert"

// DefaultBranch is used when init is given no initial branch name.
const DefaultBranch = "main"

// Repo is an opened repository. The filesystem is rooted at the .gert
// directory; RootDir and GertDir are set only for disk-backed repositories.
type Repo struct {
	RootDir string
	GertDir string

	fs    billy.Filesystem
	Store *object.Store
}

// New wraps an existing repository filesystem rooted at the .gert directory.
// Tests pass a memfs here; Init and Open construct the osfs equivalent.
func New(fs billy.Filesystem) *Repo {
	return &Repo{fs: fs, Store: object.NewStore(fs)}
}

// Init creates a new repository at path. The initial branch defaults to
// DefaultBranch. Returns an error if a .gert directory already exists.
func Init(path, initialBranch string) (*Repo, error) {
	gertDir := filepath.Join(path, GertDirName)
	if _, err := os.Stat(gertDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gertDir)
	}
	if err := os.MkdirAll(gertDir, 0o755); err != nil {
		return nil, fmt.Errorf("init: mkdir %s: %w", gertDir, err)
	}

	r, err := InitFS(osfs.New(gertDir), initialBranch)
	if err != nil {
		return nil, err
	}
	r.RootDir = path
	r.GertDir = gertDir
	return r, nil
}

// InitFS initializes a repository skeleton on an existing filesystem:
// objects/, refs/, logs/, a symbolic HEAD, and the default config.
func InitFS(fs billy.Filesystem, initialBranch string) (*Repo, error) {
	if initialBranch == "" {
		initialBranch = DefaultBranch
	}
	if _, err := fs.Stat("HEAD"); err == nil {
		return nil, errors.New("init: repository already initialized")
	}

	for _, dir := range []string{
		"objects",
		"refs/heads",
		"refs/tags",
		"logs/refs/heads",
	} {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", dir, err)
		}
	}

	r := New(fs)
	if err := r.SetHead("refs/heads/" + initialBranch); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}

	cfg := defaultConfig()
	cfg.Core.DefaultBranch = initialBranch
	if err := r.WriteConfig(cfg); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	return r, nil
}

// Open searches upward from path for a .gert directory and opens the
// repository it marks.
func Open(path string) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gertDir := filepath.Join(cur, GertDirName)
		info, err := os.Stat(gertDir)
		if err == nil && info.IsDir() {
			r := New(osfs.New(gertDir))
			r.RootDir = cur
			r.GertDir = gertDir
			return r, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a gert repository (or any parent up to /)")
		}
		cur = parent
	}
}
