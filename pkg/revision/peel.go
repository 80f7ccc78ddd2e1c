package revision

import (
	"fmt"

	"github.com/ijlyttle/gert/pkg/object"
)

// MaxPeelDepth bounds tag-chain dereferencing. Real chains are one or two
// tags deep; the bound guards against corrupt or cyclic input.
const MaxPeelDepth = 10

// Peel dereferences the object at h until an object of the target kind is
// reached. An object already of the target kind is returned unchanged, so
// peeling is idempotent. Tags are dereferenced through their target, commits
// peel to their root tree when the target is a tree, and an empty target
// means "stop at the first non-tag object". Any other kind combination, or a
// tag chain longer than MaxPeelDepth, fails with a PeelError.
func Peel(objects ObjectSource, h object.Hash, target object.ObjectType) (object.Hash, object.ObjectType, error) {
	cur := h
	for depth := 0; ; depth++ {
		objType, data, err := objects.Lookup(cur)
		if err != nil {
			return "", "", fmt.Errorf("peel %s: %w", cur, err)
		}

		switch {
		case objType == target:
			return cur, objType, nil
		case target == "" && objType != object.TypeTag:
			return cur, objType, nil
		case objType == object.TypeTag:
			if depth >= MaxPeelDepth {
				return "", "", &PeelError{From: object.TypeTag, To: target, Depth: depth}
			}
			tag, err := object.UnmarshalTag(data)
			if err != nil {
				return "", "", fmt.Errorf("peel %s: %w", cur, err)
			}
			cur = tag.TargetHash
		case objType == object.TypeCommit && target == object.TypeTree:
			commit, err := object.UnmarshalCommit(data)
			if err != nil {
				return "", "", fmt.Errorf("peel %s: %w", cur, err)
			}
			return commit.TreeHash, object.TypeTree, nil
		default:
			return "", "", &PeelError{From: objType, To: target}
		}
	}
}
