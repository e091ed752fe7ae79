package parser

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/lexer"
	"github.com/bpetersen/ssac/pkg/types"
)

var binOps = map[string]ir.BinOp{
	"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul,
	"sdiv": ir.OpSDiv, "smod": ir.OpSMod, "udiv": ir.OpUDiv, "umod": ir.OpUMod,
	"and": ir.OpAnd, "or": ir.OpOr, "xor": ir.OpXor,
	"shiftl": ir.OpShl, "shiftr_arith": ir.OpAShr, "shiftr_logic": ir.OpLShr,
}

var cmpOps = map[string]ir.CmpOp{
	"eq": ir.CmpEq, "ne": ir.CmpNe, "gt": ir.CmpGt, "ge": ir.CmpGe, "lt": ir.CmpLt, "le": ir.CmpLe,
}

var convKinds = map[string]ir.Conversion{
	"zext": ir.ConvZext, "sext": ir.ConvSext, "trunc": ir.ConvTrunc,
	"int2ptr": ir.ConvInt2Ptr, "ptr2int": ir.ConvPtr2Int, "ptrcast": ir.ConvPtrcast,
}

// parseRhs parses one `rhs` production and appends the resulting
// instruction to the current block, returning its result value.
func (p *Parser) parseRhs() *ir.Value {
	if p.curToken.Type == lexer.TokenBare {
		word := p.curToken.Literal

		if op, ok := binOps[word]; ok {
			p.nextToken()
			lhs := p.parseVal()
			p.expect(lexer.TokenComma, "','")
			rhs := p.parseVal()
			p.checkOpOperands(op, lhs, rhs)
			dest := ir.NewLocal(lhs.Type, "")
			p.curBlock.AddIsn(ir.NewOp(op, lhs, rhs, dest))
			return dest
		}
		if cmp, ok := cmpOps[word]; ok {
			p.nextToken()
			lhs := p.parseVal()
			p.expect(lexer.TokenComma, "','")
			rhs := p.parseVal()
			if lhs.Type != rhs.Type {
				p.sema("cmp: operand types must match")
			}
			dest := ir.NewLocal(p.universe.Primitive(types.I1), "")
			p.curBlock.AddIsn(ir.NewCmp(cmp, lhs, rhs, dest))
			return dest
		}
		if kind, ok := convKinds[word]; ok {
			p.nextToken()
			ty := p.parseType()
			p.expect(lexer.TokenComma, "','")
			src := p.parseVal()
			p.checkConversion(word, kind, ty, src)
			dest := ir.NewLocal(ty, "")
			p.curBlock.AddIsn(ir.NewConvert(kind, src, dest))
			return dest
		}

		switch word {
		case "load":
			p.nextToken()
			ptr := p.parseVal()
			pointee := p.universe.Deref(ptr.Type)
			if pointee == nil {
				p.sema("load: operand must be a pointer")
				pointee = p.universe.Primitive(types.I4)
			} else if p.universe.ArrayElem(pointee) != nil {
				p.sema("load: operand must not be pointer-to-array")
			}
			dest := ir.NewLocal(pointee, "")
			p.curBlock.AddIsn(ir.NewLoad(ptr, dest))
			return dest

		case "alloca":
			p.nextToken()
			ty := p.parseType()
			if p.universe.IsFunc(ty) {
				p.sema("alloca: type must not be a function")
				ty = p.universe.Primitive(types.I4)
			}
			slot := ""
			dest := ir.NewAllocaValue(p.universe.PtrTo(ty), slot, "")
			p.curBlock.AddIsn(ir.NewAlloca(ty, dest))
			return dest

		case "elem":
			p.nextToken()
			base := p.parseVal()
			p.expect(lexer.TokenComma, "','")
			index := p.parseVal()
			dest := ir.NewLocal(p.elemResultType(base.Type, index), "")
			p.curBlock.AddIsn(ir.NewElem(base, index, dest))
			return dest

		case "ptradd":
			p.nextToken()
			ptr := p.parseVal()
			p.expect(lexer.TokenComma, "','")
			n := p.parseVal()
			if !p.universe.IsPointer(ptr.Type) {
				p.sema("ptradd: lhs must be a pointer")
			}
			dest := ir.NewLocal(ptr.Type, "")
			p.curBlock.AddIsn(ir.NewPtradd(ptr, n, dest))
			return dest

		case "ptrsub":
			p.nextToken()
			lhs := p.parseVal()
			p.expect(lexer.TokenComma, "','")
			rhs := p.parseVal()
			if lhs.Type != rhs.Type {
				p.sema("ptrsub: operand pointer types must match")
			}
			dest := ir.NewLocal(p.universe.Primitive(types.I8), "")
			p.curBlock.AddIsn(ir.NewPtrsub(lhs, rhs, dest))
			return dest

		case "call":
			return p.parseCall()
		}

		// Bareword with none of the above: a reference to a global by
		// bareword name resolved ambiguity (see
		// DESIGN.md).
		name := word
		p.nextToken()
		g := p.unit.Lookup(name)
		if g == nil {
			p.sema("reference to undeclared global %q", name)
			return ir.NewUndef(p.universe.Primitive(types.I4))
		}
		return ir.NewGlobalRef(p.globalType(g), name)
	}

	p.errorf("expected rhs, got %q", p.curToken.Literal)
	p.nextToken()
	return ir.NewUndef(p.universe.Primitive(types.I4))
}

func (p *Parser) checkOpOperands(op ir.BinOp, lhs, rhs *ir.Value) {
	if op.IsShift() {
		return
	}
	if lhs.Type != rhs.Type {
		p.sema("op: operand types must match")
		return
	}
	prim, ok := p.universe.AsPrimitive(lhs.Type)
	if !ok {
		p.sema("op: operands must be integer or float primitives")
		return
	}
	if op.IsDivMod() && prim.IsFloat() {
		p.sema("op: div/mod require integer operands")
	}
}

func (p *Parser) checkConversion(word string, kind ir.Conversion, ty *types.Type, src *ir.Value) {
	switch kind {
	case ir.ConvZext, ir.ConvSext, ir.ConvTrunc:
		toP, toOK := p.universe.AsPrimitive(ty)
		fromP, fromOK := p.universe.AsPrimitive(src.Type)
		if !toOK || !fromOK || !toP.IsInteger() || !fromP.IsInteger() {
			p.sema("%s: both operands must be integer", word)
			return
		}
		toSA := p.universe.SizeAlign(ty)
		fromSA := p.universe.SizeAlign(src.Type)
		if kind == ir.ConvTrunc {
			if toSA.Size >= fromSA.Size {
				p.sema("trunc: to-size must be smaller than from-size")
			}
		} else if toSA.Size <= fromSA.Size {
			p.sema("%s: to-size must be larger than from-size", word)
		}
	case ir.ConvPtr2Int, ir.ConvInt2Ptr, ir.ConvPtrcast:
		// Pointer/integer casts: no further shape constraint beyond being
		// the right category, which the dest type already encodes.
	}
}

// elemResultType computes elem's result type: pointer-to-member for a
// struct base (requiring a literal integer index within bounds) or
// pointer-to-element for an array base (requiring a pointer-sized index).
func (p *Parser) elemResultType(baseTy *types.Type, index *ir.Value) *types.Type {
	pointee := p.universe.Deref(baseTy)
	if pointee == nil {
		p.sema("elem: base must be a pointer")
		return p.universe.Primitive(types.I4)
	}
	if p.universe.IsStruct(pointee) {
		lit, ok := index.Kind.(ir.Literal)
		if !ok {
			p.sema("elem: struct index must be a literal integer")
			return p.universe.PtrTo(pointee)
		}
		members := p.universe.StructMembers(pointee)
		if int(lit.I32) < 0 || int(lit.I32) >= len(members) {
			p.sema("elem: struct index %d out of bounds", lit.I32)
			return p.universe.PtrTo(pointee)
		}
		return p.universe.PtrTo(members[lit.I32])
	}
	if elem := p.universe.ArrayElem(pointee); elem != nil {
		if prim, ok := p.universe.AsPrimitive(index.Type); ok && prim.IsInteger() &&
			p.universe.SizeAlign(index.Type).Size != p.universe.SizeAlign(p.universe.PtrTo(pointee)).Size {
			p.sema("elem: array index must be pointer-sized")
		}
		return p.universe.PtrTo(elem)
	}
	p.sema("elem: base must be pointer-to-array or pointer-to-struct")
	return p.universe.Primitive(types.I4)
}

func (p *Parser) parseCall() *ir.Value {
	p.nextToken() // 'call'
	callee := p.parseVal()
	p.expect(lexer.TokenLParen, "'('")
	var args []*ir.Value
	for p.curToken.Type != lexer.TokenRParen && p.curToken.Type != lexer.TokenEOF {
		args = append(args, p.parseVal())
		if p.curToken.Type == lexer.TokenComma {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(lexer.TokenRParen, "')'")

	fnTy := p.universe.Called(callee.Type)
	if fnTy == nil {
		p.sema("call: callee must be a pointer to function")
		return ir.NewUndef(p.universe.Primitive(types.I4))
	}
	ret, params, variadic, _ := p.universe.FuncSig(fnTy)
	if len(args) < len(params) || (!variadic && len(args) != len(params)) {
		p.sema("call: argument count mismatch")
	}
	for i := 0; i < len(params) && i < len(args); i++ {
		if args[i].Type != params[i] {
			p.sema("call: argument %d type mismatch", i)
		}
	}

	var dest *ir.Value
	if p.universe.Resolve(ret) == p.universe.Void() {
		dest = nil
	} else if p.universe.IsStruct(ret) {
		// struct returns become an implicit first output pointer (stret),
		// allocated as an alloca in the caller; the abi pass wires this up
		// fully. Here we just allocate the slot and bind it as the call's
		// logical result.
		slotTy := p.universe.PtrTo(ret)
		dest = ir.NewAllocaValue(slotTy, "", "")
		p.curBlock.AddIsn(ir.NewAlloca(ret, dest))
	} else {
		dest = ir.NewLocal(ret, "")
	}
	p.curBlock.AddIsn(ir.NewCall(callee, args, dest))
	return dest
}
