// Package parser turns boolean query strings into postfix Programs.
//
// Grammar (NOT binds tighter than AND, which binds tighter than OR; AND and
// OR are left-associative, NOT is a prefix operator):
//
//	expr    := and ( "OR" and )*
//	and     := unary ( "AND" unary )*
//	unary   := "NOT" unary | primary
//	primary := TERM | "(" expr ")"
//
// Operators are the upper-case words AND, OR and NOT. Terms follow the
// tokenizer's word definition and are kept case-sensitive. A Program never
// touches an index; see package executor for evaluation.
package parser

import (
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

type Op int

const (
	OpTerm Op = iota
	OpAnd
	OpOr
	OpNot
)

func (o Op) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	default:
		return "TERM"
	}
}

// Instruction is one postfix step: push a term's postings, or apply an
// operator to the operand stack.
type Instruction struct {
	Op   Op
	Term string
}

// Program is a validated postfix form of a query.
type Program struct {
	Raw          string
	Instructions []Instruction
}

// String renders the program in postfix notation, e.g. "cat dog NOT AND".
func (p *Program) String() string {
	parts := make([]string, len(p.Instructions))
	for i, ins := range p.Instructions {
		if ins.Op == OpTerm {
			parts[i] = ins.Term
		} else {
			parts[i] = ins.Op.String()
		}
	}
	return strings.Join(parts, " ")
}

// Terms returns the distinct terms the program references, in order of
// first use.
func (p *Program) Terms() []string {
	seen := make(map[string]struct{})
	terms := make([]string, 0)
	for _, ins := range p.Instructions {
		if ins.Op != OpTerm {
			continue
		}
		if _, ok := seen[ins.Term]; ok {
			continue
		}
		seen[ins.Term] = struct{}{}
		terms = append(terms, ins.Term)
	}
	return terms
}

// ParseError reports a malformed query. Pos is the byte offset of the
// offending token, or len(Query) when the query ended too early.
type ParseError struct {
	Query  string
	Pos    int
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parsing query %q at offset %d: %s", e.Query, e.Pos, e.Reason)
	}
	return fmt.Sprintf("parsing query %q at offset %d (%q): %s", e.Query, e.Pos, e.Token, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return apperrors.ErrParse
}

type tokenKind int

const (
	tokTerm tokenKind = iota
	tokAnd
	tokOr
	tokNot
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

var precedence = map[tokenKind]int{
	tokOr:  1,
	tokAnd: 2,
	tokNot: 3,
}

var opFor = map[tokenKind]Op{
	tokAnd: OpAnd,
	tokOr:  OpOr,
	tokNot: OpNot,
}

// lex splits query into parentheses, operator words and terms. Any other
// character separates tokens.
func lex(query string) []token {
	tokens := make([]token, 0)
	start := -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		word := query[start:end]
		kind := tokTerm
		switch word {
		case "AND":
			kind = tokAnd
		case "OR":
			kind = tokOr
		case "NOT":
			kind = tokNot
		}
		tokens = append(tokens, token{kind: kind, text: word, pos: start})
		start = -1
	}
	for i, r := range query {
		switch {
		case tokenizer.IsWordRune(r):
			if start < 0 {
				start = i
			}
		case r == '(':
			flush(i)
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
		case r == ')':
			flush(i)
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
		default:
			flush(i)
		}
	}
	flush(len(query))
	return tokens
}

// Parse converts query to a postfix Program using the shunting-yard
// algorithm. Adjacent NOT NOT pairs cancel. Any structural problem yields
// a *ParseError.
func Parse(query string) (*Program, error) {
	tokens := lex(query)
	prog := &Program{
		Raw:          query,
		Instructions: make([]Instruction, 0, len(tokens)),
	}
	fail := func(tok token, reason string) (*Program, error) {
		return nil, &ParseError{Query: query, Pos: tok.pos, Token: tok.text, Reason: reason}
	}

	stack := make([]token, 0)
	expectOperand := true
	for _, tok := range tokens {
		switch tok.kind {
		case tokTerm:
			if !expectOperand {
				return fail(tok, "missing operator before term")
			}
			prog.Instructions = append(prog.Instructions, Instruction{Op: OpTerm, Term: tok.text})
			expectOperand = false

		case tokLParen:
			if !expectOperand {
				return fail(tok, "missing operator before '('")
			}
			stack = append(stack, tok)

		case tokRParen:
			if expectOperand {
				return fail(tok, "missing operand before ')'")
			}
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.kind == tokLParen {
					matched = true
					break
				}
				prog.Instructions = append(prog.Instructions, Instruction{Op: opFor[top.kind]})
			}
			if !matched {
				return fail(tok, "unbalanced ')'")
			}

		case tokNot:
			if !expectOperand {
				return fail(tok, "NOT cannot follow an operand; use AND NOT or OR NOT")
			}
			if len(stack) > 0 && stack[len(stack)-1].kind == tokNot {
				stack = stack[:len(stack)-1]
			} else {
				stack = append(stack, tok)
			}

		case tokAnd, tokOr:
			if expectOperand {
				return fail(tok, "missing operand before "+tok.text)
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.kind == tokLParen || precedence[top.kind] < precedence[tok.kind] {
					break
				}
				stack = stack[:len(stack)-1]
				prog.Instructions = append(prog.Instructions, Instruction{Op: opFor[top.kind]})
			}
			stack = append(stack, tok)
			expectOperand = true
		}
	}

	end := token{pos: len(query)}
	if expectOperand {
		if len(tokens) == 0 {
			return fail(end, "empty query")
		}
		return fail(end, "query ends without an operand")
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.kind == tokLParen {
			return fail(top, "unbalanced '('")
		}
		prog.Instructions = append(prog.Instructions, Instruction{Op: opFor[top.kind]})
	}
	return prog, nil
}
