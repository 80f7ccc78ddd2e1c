package main

import (
	"github.com/ijlyttle/gert/pkg/object"
	"github.com/ijlyttle/gert/pkg/repo"
)

// openRepo opens the repository enclosing the current directory. Every
// subcommand except init goes through here.
func openRepo() (*repo.Repo, error) {
	return repo.Open(".")
}

// abbrev shortens a hash to the configured display length.
func abbrev(r *repo.Repo, h object.Hash) string {
	cfg, err := r.ReadConfig()
	if err != nil {
		return string(h)
	}
	n := cfg.Resolve.Abbrev
	if n <= 0 || n > len(h) {
		return string(h)
	}
	return string(h[:n])
}
