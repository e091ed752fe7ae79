package parser

import (
	"testing"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/lexer"
	"github.com/bpetersen/ssac/pkg/types"
)

func newTestUnit() func(string) *Parser {
	universe := types.NewUniverse(types.PointerInfo{Size: 8, Align: 8})
	unit := ir.NewUnit(universe, ".L")
	return func(src string) *Parser {
		return New(lexer.New(src), universe, unit, nil, nil)
	}
}

func TestParseSimpleFunction(t *testing.T) {
	mk := newTestUnit()
	src := `$id = i4(i4) global {
entry:
ret $arg0
}`
	p := mk(src)
	p.ParseUnit()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	g := p.unit.Lookup("id")
	if g == nil {
		t.Fatal("function global not declared")
	}
	fn, ok := g.AsFunc()
	if !ok || fn == nil {
		t.Fatal("expected function global")
	}
	// The unlabelled entry block falls through to the `entry:` block.
	blocks := fn.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	isns := blocks[1].Isns()
	if len(isns) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(isns))
	}
	if _, ok := isns[0].(*ir.Ret); !ok {
		t.Fatalf("expected Ret, got %T", isns[0])
	}
}

func TestParseArithmeticAndBranch(t *testing.T) {
	mk := newTestUnit()
	src := `$f = i4(i4, i4) global {
entry:
$sum = add $arg0, $arg1
$cond = gt $sum, 0
br $cond, iftrue, iffalse
iftrue:
ret $sum
iffalse:
ret 0
}`
	p := mk(src)
	p.ParseUnit()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	fn, _ := p.unit.Lookup("f").AsFunc()
	if len(fn.Blocks()) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(fn.Blocks()))
	}
}

func TestParseGlobalVarWithInit(t *testing.T) {
	mk := newTestUnit()
	p := mk(`$x = i4 global 42`)
	p.ParseUnit()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	g := p.unit.Lookup("x")
	vg, ok := g.AsVar()
	if !ok {
		t.Fatal("expected var global")
	}
	ii, ok := vg.Init.(ir.IntInit)
	if !ok || ii.Value != 42 {
		t.Fatalf("expected IntInit{42}, got %#v", vg.Init)
	}
}

func TestParseStructTypeAlias(t *testing.T) {
	mk := newTestUnit()
	p := mk(`$Point = {i4, i4}
$origin = $Point* global $Point`)
	p.ParseUnit()
	g := p.unit.Lookup("Point")
	if g == nil {
		t.Fatal("expected $Point type-alias global")
	}
	if _, ok := g.Kind.(ir.TypeAliasGlobal); !ok {
		t.Fatalf("expected TypeAliasGlobal, got %T", g.Kind)
	}
}

func TestParseDuplicateBlockLabelIsSemaError(t *testing.T) {
	mk := newTestUnit()
	src := `$f = i4() global {
entry:
ret 0
entry:
ret 1
}`
	p := mk(src)
	p.ParseUnit()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a sema error for duplicate block label")
	}
}

func TestParseUndefinedValueIsSemaError(t *testing.T) {
	mk := newTestUnit()
	src := `$f = i4() global {
entry:
ret $nope
}`
	p := mk(src)
	p.ParseUnit()
	if len(p.Errors()) == 0 {
		t.Fatal("expected a sema error for undefined value reference")
	}
}
