package executor

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// Lookup is the read side of a frozen index.
type Lookup interface {
	Get(term string) index.PostingList
	Universe() index.PostingList
}

// EvalError reports a program that does not reduce to exactly one operand.
type EvalError struct {
	Program string
	Step    int
	Reason  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluating %q at step %d: %s", e.Program, e.Step, e.Reason)
}

func (e *EvalError) Unwrap() error {
	return apperrors.ErrEval
}

// Evaluate runs a postfix program against idx. Term postings are looked up
// lazily as their instruction is reached.
func Evaluate(prog *parser.Program, idx Lookup) (index.PostingList, error) {
	stack := make([]index.PostingList, 0, len(prog.Instructions))
	fail := func(step int, reason string) (index.PostingList, error) {
		return nil, &EvalError{Program: prog.String(), Step: step, Reason: reason}
	}
	for step, ins := range prog.Instructions {
		switch ins.Op {
		case parser.OpTerm:
			stack = append(stack, idx.Get(ins.Term))
		case parser.OpAnd, parser.OpOr:
			if len(stack) < 2 {
				return fail(step, ins.Op.String()+" needs two operands")
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			if ins.Op == parser.OpAnd {
				stack = append(stack, index.And(left, right))
			} else {
				stack = append(stack, index.Or(left, right))
			}
		case parser.OpNot:
			if len(stack) < 1 {
				return fail(step, "NOT needs an operand")
			}
			operand := stack[len(stack)-1]
			stack[len(stack)-1] = index.Not(operand, idx.Universe())
		default:
			return fail(step, fmt.Sprintf("unknown instruction %d", ins.Op))
		}
	}
	if len(stack) != 1 {
		return fail(len(prog.Instructions), fmt.Sprintf("%d operands left on the stack", len(stack)))
	}
	return stack[0], nil
}
