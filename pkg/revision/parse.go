package revision

import (
	"fmt"
	"strings"

	"github.com/ijlyttle/gert/pkg/object"
)

// Parse decomposes a revision expression into its base selector and suffix
// operators without resolving anything. The base is passed through
// uninterpreted; the parser does not check that it names an object.
//
// Grammar:
//
//	expr   := base suffix*
//	suffix := '^' digits?      first parent, or N-th parent of a merge
//	        | '^{' type? '}'   peel to type; '^{}' peels tags only
//	        | '~' digits?      walk N first-parent generations
//	        | '@{' digits '}'  reflog: value of the ref N updates ago
//	        | ':' path         entry at path within the tree (consumes rest)
//
// '^0' normalizes to a peel-to-commit operator. An empty base is allowed
// only when the first operator is a reflog lookup ("@{1}" means "HEAD@{1}").
func Parse(expr string) (*Expression, error) {
	if expr == "" {
		return nil, &ParseError{Expr: expr, Reason: "empty expression"}
	}

	i := baseEnd(expr)
	parsed := &Expression{Base: expr[:i]}

	for i < len(expr) {
		start := i
		switch expr[i] {
		case '^':
			i++
			if i < len(expr) && expr[i] == '{' {
				end := strings.IndexByte(expr[i:], '}')
				if end < 0 {
					return nil, &ParseError{Expr: expr, Pos: start, Reason: "unterminated '^{'"}
				}
				name := expr[i+1 : i+end]
				i += end + 1
				target := object.ObjectType(name)
				if name != "" && !object.ValidType(target) {
					return nil, &ParseError{Expr: expr, Pos: start, Reason: fmt.Sprintf("unknown peel target %q", name)}
				}
				parsed.Ops = append(parsed.Ops, SuffixOp{Kind: OpPeel, Target: target})
				continue
			}
			n, next := scanDigits(expr, i)
			i = next
			if n > maxSuffixCount {
				return nil, &ParseError{Expr: expr, Pos: start, Reason: "count too large"}
			}
			if n == 0 && next > start+1 {
				// '^0' means "peel to commit", not an ancestry step.
				parsed.Ops = append(parsed.Ops, SuffixOp{Kind: OpPeel, Target: object.TypeCommit})
				continue
			}
			if n == 0 {
				n = 1
			}
			parsed.Ops = append(parsed.Ops, SuffixOp{Kind: OpParent, Count: n})
		case '~':
			i++
			n, next := scanDigits(expr, i)
			i = next
			if n > maxSuffixCount {
				return nil, &ParseError{Expr: expr, Pos: start, Reason: "count too large"}
			}
			if next == start+1 {
				n = 1
			}
			parsed.Ops = append(parsed.Ops, SuffixOp{Kind: OpAncestor, Count: n})
		case '@':
			if i+1 >= len(expr) || expr[i+1] != '{' {
				return nil, &ParseError{Expr: expr, Pos: start, Reason: "unexpected '@'"}
			}
			end := strings.IndexByte(expr[i:], '}')
			if end < 0 {
				return nil, &ParseError{Expr: expr, Pos: start, Reason: "unterminated '@{'"}
			}
			body := expr[i+2 : i+end]
			i += end + 1
			if len(parsed.Ops) > 0 {
				return nil, &ParseError{Expr: expr, Pos: start, Reason: "reflog operator must come first"}
			}
			n, next := scanDigits(body, 0)
			if body == "" || next != len(body) {
				return nil, &ParseError{Expr: expr, Pos: start, Reason: "reflog index must be numeric"}
			}
			if n > maxSuffixCount {
				return nil, &ParseError{Expr: expr, Pos: start, Reason: "reflog index too large"}
			}
			parsed.Ops = append(parsed.Ops, SuffixOp{Kind: OpReflog, Count: n})
		case ':':
			parsed.Ops = append(parsed.Ops, SuffixOp{Kind: OpPath, Path: expr[i+1:]})
			i = len(expr)
		default:
			return nil, &ParseError{Expr: expr, Pos: start, Reason: fmt.Sprintf("unexpected character %q", expr[i])}
		}
	}

	if parsed.Base == "" && (len(parsed.Ops) == 0 || parsed.Ops[0].Kind != OpReflog) {
		return nil, &ParseError{Expr: expr, Reason: "empty revision base"}
	}
	return parsed, nil
}

// baseEnd returns the index where the base selector ends: the first suffix
// operator character, treating '@' as an operator only when '{' follows.
func baseEnd(expr string) int {
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '^', '~', ':':
			return i
		case '@':
			if i+1 < len(expr) && expr[i+1] == '{' {
				return i
			}
		}
	}
	return len(expr)
}

// maxSuffixCount bounds ^N, ~N, and @{N} counts. No real history needs
// more, and the bound keeps the digit accumulator away from integer
// overflow.
const maxSuffixCount = 1 << 24

// scanDigits accumulates a decimal run starting at i. The value saturates
// above maxSuffixCount so pathological digit strings cannot wrap negative;
// callers reject anything past the bound.
func scanDigits(s string, i int) (n, next int) {
	next = i
	for next < len(s) && s[next] >= '0' && s[next] <= '9' {
		if n <= maxSuffixCount {
			n = n*10 + int(s[next]-'0')
		}
		next++
	}
	return n, next
}
