package revision

import (
	"errors"
	"fmt"

	"github.com/ijlyttle/gert/pkg/object"
)

// ErrRefNotFound is returned when no reference matches a name.
var ErrRefNotFound = errors.New("reference not found")

// ParseError reports malformed suffix syntax in a revision expression.
type ParseError struct {
	Expr   string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse revision %q: %s (offset %d)", e.Expr, e.Reason, e.Pos)
}

// NotFoundError reports that an expression names nothing in the repository.
type NotFoundError struct {
	Expr   string
	Detail string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("revision %q not found: %s", e.Expr, e.Detail)
	}
	return fmt.Sprintf("revision %q not found", e.Expr)
}

// NotAncestorError reports an ancestry step that walked off the graph: a
// parent index beyond the commit's parent count, or a generation walk past a
// root commit.
type NotAncestorError struct {
	Expr   string
	Parent int
	Have   int
}

func (e *NotAncestorError) Error() string {
	return fmt.Sprintf(
		"revision %q: parent %d requested but commit has %d parent(s)",
		e.Expr, e.Parent, e.Have,
	)
}

// WrongKindError reports that an expression resolved to an object that is not
// commit-reachable while the caller asked for a commit.
type WrongKindError struct {
	Expr string
	Type object.ObjectType
}

func (e *WrongKindError) Error() string {
	return fmt.Sprintf("revision %q is a %s and does not point to a commit", e.Expr, e.Type)
}

// PeelError reports a dereference that cannot reach the target kind, either
// because the kind combination has no peel relation or because a tag chain
// exceeded the depth bound.
type PeelError struct {
	From  object.ObjectType
	To    object.ObjectType
	Depth int
}

func (e *PeelError) Error() string {
	if e.Depth > 0 {
		return fmt.Sprintf("peel %s to %s: tag chain exceeds depth %d", e.From, peelTargetName(e.To), e.Depth)
	}
	return fmt.Sprintf("cannot peel %s to %s", e.From, peelTargetName(e.To))
}

func peelTargetName(t object.ObjectType) string {
	if t == "" {
		return "non-tag"
	}
	return string(t)
}
