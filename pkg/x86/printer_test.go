package x86

import (
	"strings"
	"testing"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/lexer"
	"github.com/bpetersen/ssac/pkg/parser"
	"github.com/bpetersen/ssac/pkg/passes"
	"github.com/bpetersen/ssac/pkg/target"
	"github.com/bpetersen/ssac/pkg/types"
)

func compileToAsm(t *testing.T, triple, src string) string {
	t.Helper()
	universe := types.NewUniverse(types.PointerInfo{Size: 8, Align: 8})
	unit := ir.NewUnit(universe, ".L")
	spec, err := target.Parse(triple)
	if err != nil {
		t.Fatalf("unexpected target error: %v", err)
	}

	p := parser.New(lexer.New(src), universe, unit, spec, nil)
	p.ParseUnit()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	if len(unit.Errors) != 0 {
		t.Fatalf("unexpected unit errors: %v", unit.Errors)
	}

	if err := passes.Default(target.SysVAbi()).Run(unit, spec); err != nil {
		t.Fatalf("pipeline error: %v", err)
	}

	var sb strings.Builder
	NewPrinter(&sb, unit, spec).PrintUnit()
	return sb.String()
}

func TestPrintUnitEmitsFunctionPrologueAndReturn(t *testing.T) {
	asm := compileToAsm(t, "linux-x86_64", `$f = i4(i4, i4) global {
entry:
$sum = add $arg0, $arg1
ret $sum
}`)

	for _, want := range []string{".globl\tf", "f:", "push\t%rbp", "mov\t%rsp, %rbp", "mov\t%ebx, %eax", "leave", "ret"} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, asm)
		}
	}
}

func TestPrintUnitLowersDivision(t *testing.T) {
	asm := compileToAsm(t, "linux-x86_64", `$f = i4(i4, i4) global {
entry:
$q = sdiv $arg0, $arg1
ret $q
}`)

	for _, want := range []string{"cqto", "idiv"} {
		if !strings.Contains(asm, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, asm)
		}
	}
}

func TestPrintUnitLowersAllocaAsLea(t *testing.T) {
	asm := compileToAsm(t, "linux-x86_64", `$f = i4() global {
entry:
$p = alloca i4
store 7, $p
$v = load $p
ret $v
}`)

	if !strings.Contains(asm, "lea\t") {
		t.Errorf("expected an lea for the alloca's address, got:\n%s", asm)
	}
	if !strings.Contains(asm, "sub\t$") {
		t.Errorf("expected the prologue to reserve stack space for the alloca, got:\n%s", asm)
	}
}

func TestPrintUnitDarwinMangling(t *testing.T) {
	asm := compileToAsm(t, "darwin-x86_64", `$f = i4() global {
entry:
ret 0
}`)

	if !strings.Contains(asm, "_f:") {
		t.Errorf("expected a leading-underscore mangled symbol on darwin, got:\n%s", asm)
	}
}

func TestPrintVarGlobalEmitsRodataAndData(t *testing.T) {
	asm := compileToAsm(t, "linux-x86_64", `$msg = [i1 x 4] const { 104, 105, 33, 0 }
$counter = i4 global
`)

	if !strings.Contains(asm, ".section\t.rodata") {
		t.Errorf("expected a .rodata section for the constant global, got:\n%s", asm)
	}
	if !strings.Contains(asm, ".data") {
		t.Errorf("expected a .data section for the mutable global, got:\n%s", asm)
	}
}
