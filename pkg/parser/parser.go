// Package parser implements a recursive-descent parser for the ssac
// textual IR: top-level globals, function bodies, and the
// instruction/value grammar. Semantic errors are reported through a
// caller-provided sink and do not stop parsing — the parser substitutes a
// default type or value and continues, matching the error
// policy.
package parser

import (
	"fmt"
	"strconv"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/lexer"
	"github.com/bpetersen/ssac/pkg/target"
	"github.com/bpetersen/ssac/pkg/types"
)

// SemaError carries a source location alongside its message, the same
// shape lex/parse errors use.
type SemaError struct {
	Line, Column int
	Msg          string
}

func (e *SemaError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

// ErrorSink receives semantic errors as parsing continues.
type ErrorSink func(error)

// Parser parses one translation unit's worth of tokens.
type Parser struct {
	l         *lexer.Lexer
	curToken  lexer.Token
	peekToken lexer.Token

	universe *types.Universe
	unit     *ir.Unit
	target   *target.Spec
	sink     ErrorSink

	parseErrors []error

	// per-function parse state
	fn         *ir.Function
	curBlock   *ir.Block
	names2vals map[string]*ir.Value
}

// New creates a Parser reading from l, interning types into universe and
// declaring globals into unit. sink receives semantic errors; it may be
// nil, in which case semantic errors are silently recorded only in
// Errors().
func New(l *lexer.Lexer, universe *types.Universe, unit *ir.Unit, tgt *target.Spec, sink ErrorSink) *Parser {
	p := &Parser{l: l, universe: universe, unit: unit, target: tgt, sink: sink}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// Errors returns every error accumulated so far: parse errors
// (lex/grammar-level) and sema errors alike. Sema errors are also passed
// to the sink as they occur.
func (p *Parser) Errors() []error { return p.parseErrors }

func (p *Parser) errorf(format string, args ...interface{}) {
	p.parseErrors = append(p.parseErrors, &SemaError{
		Line: p.curToken.Line, Column: p.curToken.Column,
		Msg: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) sema(format string, args ...interface{}) {
	err := &SemaError{Line: p.curToken.Line, Column: p.curToken.Column, Msg: fmt.Sprintf(format, args...)}
	p.parseErrors = append(p.parseErrors, err)
	if p.sink != nil {
		p.sink(err)
	}
}

// expect consumes curToken if it matches typ, else records a parse error
// and does not advance (non-consuming-on-failure).
func (p *Parser) expect(typ lexer.TokenType, what string) bool {
	if p.curToken.Type != typ {
		p.errorf("expected %s, got %q", what, p.curToken.Literal)
		return false
	}
	p.nextToken()
	return true
}

// acceptBare consumes curToken if it is a bareword with the given
// literal text, matching the grammar's context-sensitive keyword
// dispatch. Returns false (without consuming) otherwise.
func (p *Parser) acceptBare(word string) bool {
	if p.curToken.Type == lexer.TokenBare && p.curToken.Literal == word {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) curIsBare(word string) bool {
	return p.curToken.Type == lexer.TokenBare && p.curToken.Literal == word
}

// ParseUnit parses every top-level global until EOF.
func (p *Parser) ParseUnit() {
	for p.curToken.Type != lexer.TokenEOF {
		p.parseGlobal()
	}
}

// parseGlobal parses one `ident '=' type-or-fn (linkage init?)?` entry.
// The distilled grammar's leading optional `[type]` before ident has no
// use once the type always follows '='; ssac treats it as EBNF
// decoration rather than a second syntax element (documented decision).
func (p *Parser) parseGlobal() {
	if p.curToken.Type != lexer.TokenIdent {
		p.errorf("expected global name ($ident), got %q", p.curToken.Literal)
		p.nextToken()
		return
	}
	name := p.curToken.Literal
	p.nextToken()
	if !p.expect(lexer.TokenEquals, "'='") {
		p.skipToNextGlobal()
		return
	}

	ty, isAggregateTypeExpr := p.parseTypeTracked()

	if ret, args, variadic, ok := p.universe.FuncSig(ty); ok {
		linkage, _ := p.parseLinkageAndModifiers()
		p.parseFunctionGlobal(name, ty, ret, args, variadic, linkage)
		return
	}

	// A bare struct/array type expression with nothing following it (no
	// linkage keyword, no initializer) declares a reusable named alias
	// rather than a storage location (documented open-question decision;
	// see DESIGN.md).
	if isAggregateTypeExpr && (p.startsNextGlobal() || p.curToken.Type == lexer.TokenEOF) {
		aliased := p.universe.AddAlias(name, ty)
		p.unit.Declare(ir.NewTypeAliasGlobal(name, aliased))
		return
	}

	linkage, _ := p.parseLinkageAndModifiers()

	var init ir.Initializer
	if p.startsInit() {
		init = p.parseInit(ty)
	}
	g := ir.NewVarGlobal(name, ty, init, linkage)
	p.unit.Declare(g)
}

// startsInit reports whether curToken can begin an `init` production.
func (p *Parser) startsInit() bool {
	switch p.curToken.Type {
	case lexer.TokenInt, lexer.TokenString, lexer.TokenLBrace, lexer.TokenIdent:
		return true
	}
	return p.curIsBare("aliasinit")
}

// startsNextGlobal heuristically detects the boundary between one
// global's optional initializer and the next global's `ident '='`
// header, since the grammar has no explicit terminator for a top-level
// declaration.
func (p *Parser) startsNextGlobal() bool {
	return p.curToken.Type == lexer.TokenIdent && p.peekToken.Type == lexer.TokenEquals
}

func (p *Parser) skipToNextGlobal() {
	for p.curToken.Type != lexer.TokenEOF && !p.startsNextGlobal() {
		p.nextToken()
	}
}

func (p *Parser) parseLinkageAndModifiers() (ir.GlobalLinkage, bool) {
	var linkage ir.GlobalLinkage
	internal := false
	for {
		switch {
		case p.acceptBare("internal"):
			linkage |= ir.LinkInternal
			internal = true
		case p.acceptBare("global"):
			// default linkage; no bit to set
		case p.acceptBare("weak"):
			linkage |= ir.LinkWeak
		case p.acceptBare("const"):
			linkage |= ir.LinkConstant
		default:
			return linkage, internal
		}
	}
}

// parseTypeTracked parses a type like parseType, additionally reporting
// whether it was a bare aggregate literal ('{...}' or '[...]') with no
// postfix applied — the shape parseGlobal uses to recognize a type-alias
// declaration.
func (p *Parser) parseTypeTracked() (*types.Type, bool) {
	startedAggregate := p.curToken.Type == lexer.TokenLBrace || p.curToken.Type == lexer.TokenLBracket
	before := p.curToken
	t := p.parseBaseType()
	noPostfix := p.curToken.Type != lexer.TokenStar && p.curToken.Type != lexer.TokenLParen
	_ = before
	if !noPostfix {
		t = p.applyTypePostfixes(t)
		return t, false
	}
	return t, startedAggregate
}

func (p *Parser) applyTypePostfixes(t *types.Type) *types.Type {
	for {
		switch {
		case p.curToken.Type == lexer.TokenStar:
			p.nextToken()
			t = p.universe.PtrTo(t)
		case p.curToken.Type == lexer.TokenLParen:
			p.nextToken()
			var args []*types.Type
			variadic := false
			for p.curToken.Type != lexer.TokenRParen && p.curToken.Type != lexer.TokenEOF {
				if p.curIsBare("...") {
					variadic = true
					p.nextToken()
					break
				}
				args = append(args, p.parseType())
				if p.curToken.Type == lexer.TokenComma {
					p.nextToken()
				} else {
					break
				}
			}
			p.expect(lexer.TokenRParen, "')'")
			ft, err := p.universe.FuncOf(t, args, variadic)
			if err != nil {
				p.sema("%s", err)
				ft = t
			}
			t = ft
		default:
			return t
		}
	}
}

// parseType parses a base type and its postfix '*' / '(' type-list ')'
// suffixes, left to right.
func (p *Parser) parseType() *types.Type {
	return p.applyTypePostfixes(p.parseBaseType())
}

func (p *Parser) parseBaseType() *types.Type {
	switch {
	case p.curToken.Type == lexer.TokenIdent:
		name := p.curToken.Literal
		p.nextToken()
		if resolved, ok := p.universe.ResolveAlias(name); ok {
			return resolved
		}
		p.sema("use of undeclared type alias $%s, defaulting to i4", name)
		return p.universe.Primitive(types.I4)
	case p.curToken.Type == lexer.TokenLBrace:
		p.nextToken()
		var members []*types.Type
		for p.curToken.Type != lexer.TokenRBrace && p.curToken.Type != lexer.TokenEOF {
			members = append(members, p.parseType())
			if p.curToken.Type == lexer.TokenComma {
				p.nextToken()
			} else {
				break
			}
		}
		p.expect(lexer.TokenRBrace, "'}'")
		return p.universe.StructOf(members)
	case p.curToken.Type == lexer.TokenLBracket:
		p.nextToken()
		elem := p.parseType()
		if !p.acceptBare("x") {
			p.errorf("expected 'x' in array type")
		}
		n := p.parseUintLiteral()
		p.expect(lexer.TokenRBracket, "']'")
		at, err := p.universe.ArrayOf(elem, n)
		if err != nil {
			p.sema("%s", err)
			at = elem
		}
		return at
	case p.curToken.Type == lexer.TokenBare:
		prim, ok := primitiveByName(p.curToken.Literal)
		if !ok {
			p.errorf("expected type, got %q", p.curToken.Literal)
			p.nextToken()
			return p.universe.Primitive(types.I4)
		}
		p.nextToken()
		if prim == voidMarker {
			return p.universe.Void()
		}
		return p.universe.Primitive(prim)
	default:
		p.errorf("expected type, got %q", p.curToken.Literal)
		p.nextToken()
		return p.universe.Primitive(types.I4)
	}
}

const voidMarker = types.Primitive(255)

func primitiveByName(name string) (types.Primitive, bool) {
	switch name {
	case "void":
		return voidMarker, true
	case "i1":
		return types.I1, true
	case "i2":
		return types.I2, true
	case "i4":
		return types.I4, true
	case "i8":
		return types.I8, true
	case "f4":
		return types.F4, true
	case "f8":
		return types.F8, true
	case "flarge":
		return types.FLarge, true
	}
	return 0, false
}

func (p *Parser) parseUintLiteral() uint64 {
	if p.curToken.Type != lexer.TokenInt {
		p.errorf("expected integer, got %q", p.curToken.Literal)
		return 0
	}
	n, err := strconv.ParseUint(p.curToken.Literal, 10, 64)
	if err != nil {
		p.errorf("invalid integer literal %q", p.curToken.Literal)
	}
	p.nextToken()
	return n
}

func (p *Parser) parseIntLiteral() int64 {
	if p.curToken.Type != lexer.TokenInt {
		p.errorf("expected integer, got %q", p.curToken.Literal)
		return 0
	}
	n, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.errorf("invalid integer literal %q", p.curToken.Literal)
	}
	p.nextToken()
	return n
}
