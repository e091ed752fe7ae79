package parser

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/lexer"
	"github.com/bpetersen/ssac/pkg/types"
)

// parseInit parses one `init` production for a global of declared type
// ty grammar.
func (p *Parser) parseInit(ty *types.Type) ir.Initializer {
	if p.universe.IsPointer(ty) {
		return p.parsePtrInit()
	}

	switch {
	case p.acceptBare("aliasinit"):
		as := p.parseType()
		if p.universe.SizeAlign(as).Size > p.universe.SizeAlign(ty).Size {
			p.sema("aliasinit: declared type size exceeds target type size")
		}
		inner := p.parseInit(as)
		return ir.AliasInit{As: as, Inner: inner}

	case p.curToken.Type == lexer.TokenString:
		s := p.curToken.Literal
		p.nextToken()
		if elem := p.universe.ArrayElem(ty); elem == nil || p.universe.Resolve(elem) != p.universe.Primitive(types.I1) {
			p.sema("string initializer is only legal for i1 arrays")
		}
		return ir.StrInit{Bytes: []byte(s)}

	case p.curToken.Type == lexer.TokenLBrace:
		return p.parseAggregateInit(ty)

	case p.curToken.Type == lexer.TokenInt:
		n := p.parseIntLiteral()
		return ir.IntInit{Value: uint64(n)}

	default:
		p.errorf("expected initializer, got %q", p.curToken.Literal)
		p.nextToken()
		return ir.IntInit{Value: 0}
	}
}

func (p *Parser) parseAggregateInit(ty *types.Type) ir.Initializer {
	p.expect(lexer.TokenLBrace, "'{'")

	var elemTypes []*types.Type
	isStruct := p.universe.IsStruct(ty)
	if isStruct {
		elemTypes = p.universe.StructMembers(ty)
	}
	arrayElem := p.universe.ArrayElem(ty)

	var elems []ir.Initializer
	for p.curToken.Type != lexer.TokenRBrace && p.curToken.Type != lexer.TokenEOF {
		var elemTy *types.Type
		switch {
		case isStruct && len(elems) < len(elemTypes):
			elemTy = elemTypes[len(elems)]
		case arrayElem != nil:
			elemTy = arrayElem
		default:
			elemTy = p.universe.Primitive(types.I4)
		}
		elems = append(elems, p.parseInit(elemTy))
		if p.curToken.Type == lexer.TokenComma {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.TokenRBrace, "'}'")

	if isStruct && len(elems) != len(elemTypes) {
		p.sema("struct initializer element count must match the declared shape")
	}

	if isStruct {
		return ir.StructInit{Elems: elems}
	}
	return ir.ArrayInit{Elems: elems}
}

// parsePtrInit parses `ptrinit := int | '$'ident (('add'|'sub') int)? 'anyptr'?`.
func (p *Parser) parsePtrInit() ir.Initializer {
	if p.curToken.Type == lexer.TokenInt {
		n := p.parseIntLiteral()
		return ir.PtrInit{Target: ir.PtrTarget{Int: uint64(n)}}
	}
	if p.curToken.Type != lexer.TokenIdent {
		p.errorf("expected pointer initializer, got %q", p.curToken.Literal)
		p.nextToken()
		return ir.PtrInit{}
	}
	label := p.curToken.Literal
	p.nextToken()

	var offset int64
	if p.acceptBare("add") {
		offset = p.parseIntLiteral()
	} else if p.acceptBare("sub") {
		offset = -p.parseIntLiteral()
	}
	anyptr := p.acceptBare("anyptr")

	return ir.PtrInit{Target: ir.PtrTarget{IsLabel: true, Label: label, Offset: offset, AnyPtr: anyptr}}
}
