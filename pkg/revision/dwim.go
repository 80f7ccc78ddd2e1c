package revision

import (
	"errors"
	"fmt"
)

// Namespace priority for short names. Local branches outrank remote-tracking
// branches, which outrank tags, so a name present in several namespaces
// resolves deterministically to the higher-priority one.
var shortNameNamespaces = []string{
	"refs/heads/%s",
	"refs/remotes/%s",
	"refs/remotes/%s/HEAD",
	"refs/tags/%s",
}

// ResolveName resolves a possibly-short reference name to a Reference.
// Fully-qualified names ("refs/...") are looked up exactly; anything else is
// tried against each namespace in priority order, then against the
// well-known repository-root pointers (HEAD, ORIG_HEAD, MERGE_HEAD,
// FETCH_HEAD; "@" is an alias for HEAD). No match returns ErrRefNotFound.
// The lookup is pure: no side effects on the reference namespace.
func ResolveName(refs RefSource, name string) (Reference, error) {
	if name == "" {
		return Reference{}, fmt.Errorf("resolve name: %w", ErrRefNotFound)
	}

	candidates := make([]string, 0, len(shortNameNamespaces)+1)
	if hasRefsPrefix(name) {
		candidates = append(candidates, name)
	} else {
		for _, ns := range shortNameNamespaces {
			candidates = append(candidates, fmt.Sprintf(ns, name))
		}
	}
	if special, ok := specialToken(name); ok {
		candidates = append(candidates, special)
	}

	for _, candidate := range candidates {
		ref, err := refs.LookupRef(candidate)
		if err == nil {
			return ref, nil
		}
		if !errors.Is(err, ErrRefNotFound) {
			return Reference{}, err
		}
	}
	return Reference{}, fmt.Errorf("resolve name %q: %w", name, ErrRefNotFound)
}

func hasRefsPrefix(name string) bool {
	return len(name) > 5 && name[:5] == "refs/"
}

// specialToken maps well-known pointer names to the root pointer to look up.
func specialToken(name string) (string, bool) {
	switch name {
	case "@":
		return "HEAD", true
	case "HEAD", "ORIG_HEAD", "MERGE_HEAD", "FETCH_HEAD":
		return name, true
	}
	return "", false
}
