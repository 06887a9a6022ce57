// Package expr implements the embedded boolean expression language used by
// expression conditions. The grammar, lowest precedence first: ||, &&,
// equality (== !=), comparison (> >= < <=), unary !, then primaries
// (literals, dotted identifiers, function calls, parenthesized groups).
//
// Identifiers resolve against game state by namespace prefix:
//
//	flag.<key>  boolean flag, default false
//	stat.<key>  numeric stat, default 0
//	var.<key>   arbitrary value, default nil
//	rep.<key>   reputation number, default 0
//
// Builtin functions: hasItem(id), itemCount(id). Unknown function names
// evaluate to nil. Errors never escape as panics; Evaluate reports them in
// the result and yields false.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nathoo/storyloom/engine/state"
	"github.com/nathoo/storyloom/types"
)

// Result is the outcome of evaluating an expression: the boolean value and,
// when parsing or evaluation failed, a non-empty error description.
type Result struct {
	Value bool
	Err   string
}

// Evaluate runs an expression against a state snapshot. Errors degrade to
// a false value with Err set; the caller decides whether to log or retry
// through rule modules.
func Evaluate(input string, s *types.GameState) Result {
	value, err := run(input, s)
	if err != nil {
		return Result{Value: false, Err: err.Error()}
	}
	return Result{Value: truthy(value)}
}

// Validate parses and dry-runs an expression against a blank state. Used
// by bundle validation to flag unparseable expressions before play.
func Validate(input string) error {
	blank := &types.GameState{
		Character: types.Character{Stats: map[string]float64{}},
		Flags:     map[string]bool{},
		Vars:      map[string]any{},
	}
	_, err := run(input, blank)
	return err
}

func run(input string, s *types.GameState) (any, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	p := &parser{tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return eval(node, s)
}

// Tokenizer.

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokString
	tokBool
	tokIdent
	tokOp
	tokParen
	tokComma
)

type token struct {
	kind  tokenKind
	value string
}

var twoCharOps = []string{"==", "!=", ">=", "<=", "&&", "||"}

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '.'
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		c := input[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c == '(' || c == ')':
			tokens = append(tokens, token{kind: tokParen, value: string(c)})
			i++

		case c == ',':
			tokens = append(tokens, token{kind: tokComma, value: ","})
			i++

		case i+1 < len(input) && contains(twoCharOps, input[i:i+2]):
			tokens = append(tokens, token{kind: tokOp, value: input[i : i+2]})
			i += 2

		case c == '>' || c == '<' || c == '!':
			tokens = append(tokens, token{kind: tokOp, value: string(c)})
			i++

		case c == '"' || c == '\'':
			quote := c
			i++
			var sb strings.Builder
			for i < len(input) && input[i] != quote {
				if input[i] == '\\' && i+1 < len(input) {
					sb.WriteByte(input[i+1])
					i += 2
				} else {
					sb.WriteByte(input[i])
					i++
				}
			}
			if i >= len(input) {
				return nil, fmt.Errorf("unterminated string literal")
			}
			i++ // closing quote
			tokens = append(tokens, token{kind: tokString, value: sb.String()})

		case isDigit(c) || (c == '.' && i+1 < len(input) && isDigit(input[i+1])):
			start := i
			for i < len(input) && (isDigit(input[i]) || input[i] == '.') {
				i++
			}
			tokens = append(tokens, token{kind: tokNumber, value: input[start:i]})

		case isAlpha(c):
			start := i
			for i < len(input) && isIdentChar(input[i]) {
				i++
			}
			word := input[start:i]
			if word == "true" || word == "false" {
				tokens = append(tokens, token{kind: tokBool, value: word})
			} else {
				tokens = append(tokens, token{kind: tokIdent, value: word})
			}

		default:
			return nil, fmt.Errorf("unexpected token: %c", c)
		}
	}

	return tokens, nil
}

func contains(list []string, s string) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

// Parser. Recursive descent with a position cursor scoped to one parse.

type node interface{}

type literalNode struct{ value any }

type identNode struct{ name string }

type unaryNode struct{ operand node }

type binaryNode struct {
	op          string
	left, right node
}

type callNode struct {
	name string
	args []node
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) parseExpression() (node, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchOp("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "||", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.matchOp("&&") {
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: "&&", left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseEquality() (node, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.matchOp("==") || p.matchOp("!=") {
		op := p.previous().value
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.matchOp(">") || p.matchOp(">=") || p.matchOp("<") || p.matchOp("<=") {
		op := p.previous().value
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.matchOp("!") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return unaryNode{operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (node, error) {
	if p.match(tokNumber) {
		value, err := strconv.ParseFloat(p.previous().value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number literal %q", p.previous().value)
		}
		return literalNode{value: value}, nil
	}
	if p.match(tokString) {
		return literalNode{value: p.previous().value}, nil
	}
	if p.match(tokBool) {
		return literalNode{value: p.previous().value == "true"}, nil
	}
	if p.match(tokIdent) {
		name := p.previous().value
		if !p.matchValue(tokParen, "(") {
			return identNode{name: name}, nil
		}
		var args []node
		if !p.checkValue(tokParen, ")") {
			for {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.matchValue(tokComma, ",") {
					break
				}
			}
		}
		if !p.matchValue(tokParen, ")") {
			return nil, fmt.Errorf("expected closing parenthesis for function call")
		}
		return callNode{name: name, args: args}, nil
	}
	if p.matchValue(tokParen, "(") {
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.matchValue(tokParen, ")") {
			return nil, fmt.Errorf("expected closing parenthesis")
		}
		return inner, nil
	}
	return nil, fmt.Errorf("unexpected expression token")
}

func (p *parser) match(kind tokenKind) bool {
	if p.check(kind) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) matchOp(value string) bool {
	return p.matchValue(tokOp, value)
}

func (p *parser) matchValue(kind tokenKind, value string) bool {
	if p.checkValue(kind, value) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) check(kind tokenKind) bool {
	return p.pos < len(p.tokens) && p.tokens[p.pos].kind == kind
}

func (p *parser) checkValue(kind tokenKind, value string) bool {
	return p.check(kind) && p.tokens[p.pos].value == value
}

func (p *parser) previous() token {
	return p.tokens[p.pos-1]
}

// Evaluator.

func eval(n node, s *types.GameState) (any, error) {
	switch n := n.(type) {
	case literalNode:
		return n.value, nil

	case identNode:
		return resolveIdentifier(n.name, s)

	case unaryNode:
		value, err := eval(n.operand, s)
		if err != nil {
			return nil, err
		}
		return !truthy(value), nil

	case callNode:
		args := make([]any, 0, len(n.args))
		for _, arg := range n.args {
			value, err := eval(arg, s)
			if err != nil {
				return nil, err
			}
			args = append(args, value)
		}
		return callBuiltin(n.name, args, s), nil

	case binaryNode:
		// Both operands evaluate even for && and ||: an error anywhere in
		// the expression always surfaces, it is never hidden behind an
		// already-decided boolean.
		left, err := eval(n.left, s)
		if err != nil {
			return nil, err
		}
		right, err := eval(n.right, s)
		if err != nil {
			return nil, err
		}
		switch n.op {
		case "&&":
			return truthy(left) && truthy(right), nil
		case "||":
			return truthy(left) || truthy(right), nil
		case "==":
			return strictEquals(left, right), nil
		case "!=":
			return !strictEquals(left, right), nil
		case ">":
			return toNumber(left) > toNumber(right), nil
		case ">=":
			return toNumber(left) >= toNumber(right), nil
		case "<":
			return toNumber(left) < toNumber(right), nil
		case "<=":
			return toNumber(left) <= toNumber(right), nil
		default:
			return false, nil
		}

	default:
		return false, nil
	}
}

func resolveIdentifier(name string, s *types.GameState) (any, error) {
	switch {
	case strings.HasPrefix(name, "flag."):
		key := name[len("flag."):]
		if key == "" {
			return nil, fmt.Errorf("invalid flag identifier")
		}
		return state.GetFlag(s, key), nil
	case strings.HasPrefix(name, "stat."):
		key := name[len("stat."):]
		if key == "" {
			return nil, fmt.Errorf("invalid stat identifier")
		}
		return state.GetStat(s, key), nil
	case strings.HasPrefix(name, "var."):
		key := name[len("var."):]
		if key == "" {
			return nil, fmt.Errorf("invalid var identifier")
		}
		return state.GetVar(s, key), nil
	case strings.HasPrefix(name, "rep."):
		key := name[len("rep."):]
		if key == "" {
			return nil, fmt.Errorf("invalid rep identifier")
		}
		return state.GetReputation(s, key), nil
	default:
		return nil, nil
	}
}

func callBuiltin(name string, args []any, s *types.GameState) any {
	switch name {
	case "hasItem":
		return state.HasItem(s, stringArg(args, 0))
	case "itemCount":
		return float64(state.ItemCount(s, stringArg(args, 0)))
	default:
		// Unknown function names evaluate to nil rather than erroring.
		return nil
	}
}

func stringArg(args []any, index int) string {
	if index < len(args) {
		if s, ok := args[index].(string); ok {
			return s
		}
	}
	return ""
}

// truthy mirrors boolean coercion: false, 0, "", and nil are falsy;
// everything else is truthy.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return true
	}
}

// toNumber coerces a value for comparison operators. Values with no
// numeric reading become NaN, which makes every comparison false.
func toNumber(v any) float64 {
	switch v := v.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

// strictEquals compares by value identity: differing dynamic types are
// never equal, and composite values only compare by reference semantics
// (which Go cannot express here), so they compare unequal.
func strictEquals(a, b any) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case bool:
		bb, ok := b.(bool)
		return ok && a == bb
	case float64:
		bb, ok := toFloat(b)
		aa := a
		if !ok {
			return false
		}
		return aa == bb
	case int:
		bb, ok := toFloat(b)
		if !ok {
			return false
		}
		return float64(a) == bb
	case string:
		bb, ok := b.(string)
		return ok && a == bb
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
