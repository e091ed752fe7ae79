package passes

import (
	"testing"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/lexer"
	"github.com/bpetersen/ssac/pkg/parser"
	"github.com/bpetersen/ssac/pkg/target"
	"github.com/bpetersen/ssac/pkg/types"
)

func parseTestUnit(t *testing.T, src string) *ir.Unit {
	t.Helper()
	universe := types.NewUniverse(types.PointerInfo{Size: 8, Align: 8})
	unit := ir.NewUnit(universe, ".L")
	p := parser.New(lexer.New(src), universe, unit, nil, nil)
	p.ParseUnit()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return unit
}

func TestPipelineAssignsLocationsToLocals(t *testing.T) {
	unit := parseTestUnit(t, `$f = i4(i4, i4) global {
entry:
$sum = add $arg0, $arg1
ret $sum
}`)

	spec, err := target.Parse("linux-x86_64")
	if err != nil {
		t.Fatalf("unexpected target error: %v", err)
	}
	pl := Default(target.SysVAbi())
	if err := pl.Run(unit, spec); err != nil {
		t.Fatalf("pipeline error: %v", err)
	}

	fn, _ := unit.Lookup("f").AsFunc()
	for _, b := range fn.Blocks() {
		for _, inst := range b.Isns() {
			if op, ok := inst.(*ir.Op); ok {
				if op.Dest.Location() == nil {
					t.Fatalf("Op result has no location after regalloc")
				}
				if op.Dest.Location().Where == ir.AnyReg {
					t.Fatalf("Op result still AnyReg after regalloc")
				}
			}
		}
	}
}

func TestExpandBuiltinsLowersSmallMemcpy(t *testing.T) {
	unit := parseTestUnit(t, `$f = i4() global {
entry:
$p = alloca i4
$q = alloca i4
memcpy $p, $q
ret 0
}`)
	(&ExpandBuiltins{}).Run(unit, nil)

	fn, _ := unit.Lookup("f").AsFunc()
	for _, b := range fn.Blocks() {
		for _, inst := range b.Isns() {
			if _, ok := inst.(*ir.Memcpy); ok {
				t.Fatal("memcpy was not expanded for a small, known-size copy")
			}
		}
	}
}

func TestToDAGBuildsOneNodePerInstruction(t *testing.T) {
	unit := parseTestUnit(t, `$f = i4() global {
entry:
$x = add 1, 2
ret $x
}`)
	(&ToDAG{}).Run(unit, nil)

	fn, _ := unit.Lookup("f").AsFunc()
	b := fn.Blocks()[0]
	if b.DAG() == nil {
		t.Fatal("expected a DAG to be attached to the block")
	}
	if len(b.DAG().Nodes) != len(b.Isns()) {
		t.Fatalf("expected %d DAG nodes, got %d", len(b.Isns()), len(b.DAG().Nodes))
	}
}
