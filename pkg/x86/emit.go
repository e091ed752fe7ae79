package x86

import (
	"fmt"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
)

// printInstr renders one lowered instruction as AT&T-syntax assembly,
// following the instruction-lowering table. By the time the
// pipeline reaches this stage every operand is either a Literal, an Undef
// (rendered as an immediate zero), or a LocalVal carrying a concrete Reg
// or SpillSlot Location — isel's materialize step has already turned any
// addressable (AllocaVal/GlobalRef/LabelVal) use into a register through
// an explicit lea, except for a Copy's own source (which IS that lea) and
// a directly-called function's callee symbol.
func (p *Printer) printInstr(inst ir.Instruction, labels *labelAssigner, f *frame) {
	switch in := inst.(type) {
	case *ir.Load:
		p.printf("\tmov\t%s, %s\n", p.mem(in.Ptr, p.sizeOf(in.Dest)), p.reg(in.Dest))
	case *ir.Store:
		p.printf("\tmov\t%s, %s\n", p.operand(in.Val), p.mem(in.Ptr, p.sizeOf(in.Val)))
	case *ir.Alloca:
		// No code: the slot's address is materialized on demand by a Copy
		// (lea) wherever the alloca'd pointer is actually used.
	case *ir.Elem:
		p.printElem(in)
	case *ir.Ptradd:
		p.printf("\tmov\t%s, %s\n", p.operand(in.Ptr), p.reg(in.Dest))
		p.printf("\tadd\t%s, %s\n", p.operand(in.Int), p.reg(in.Dest))
	case *ir.Ptrsub:
		p.printf("\tmov\t%s, %s\n", p.operand(in.Lhs), p.reg(in.Dest))
		p.printf("\tsub\t%s, %s\n", p.operand(in.Rhs), p.reg(in.Dest))
	case *ir.Convert:
		p.printConvert(in)
	case *ir.Op:
		p.printOp(in)
	case *ir.Cmp:
		p.printCmp(in)
	case *ir.Copy:
		p.printCopy(in, labels)
	case *ir.Call:
		p.printCall(in)
	case *ir.Ret:
		p.printRet(in, f)
	case *ir.Jmp:
		p.printf("\tjmp\t%s\n", labels.For(in.Target))
	case *ir.Br:
		p.printf("\ttest\t%s, %s\n", p.operand(in.Cond), p.operand(in.Cond))
		p.printf("\tjne\t%s\n", labels.For(in.TBlock))
		p.printf("\tjmp\t%s\n", labels.For(in.FBlock))
	case *ir.JmpComputed:
		p.printf("\tjmp\t*%s\n", p.operand(in.Target))
	case *ir.Label:
		// Address-taken marker only; carries no code of its own.
	case *ir.Asm:
		p.printf("\t%s\n", in.Text)
	case *ir.Memcpy:
		p.printf("\trep movsb\n")
	}
}

func (p *Printer) sizeOf(v *ir.Value) uint64 {
	if v == nil {
		return 8
	}
	return p.unit.Types.SizeAlign(v.Type).Size
}

// reg renders v (which must carry a Reg location) at its natural width.
func (p *Printer) reg(v *ir.Value) string {
	loc := v.Location()
	if loc == nil || loc.Where != ir.Reg {
		panic(fmt.Sprintf("x86: value has no register location: %#v", v))
	}
	return "%" + target.Reg(loc.RegID).NameForSize(p.sizeOf(v))
}

// operand renders any of a Literal, Undef, or LocalVal (Reg or SpillSlot)
// as a source/destination operand.
func (p *Printer) operand(v *ir.Value) string {
	switch k := v.Kind.(type) {
	case ir.Literal:
		return fmt.Sprintf("$%d", k.I32)
	case ir.Undef:
		return "$0"
	case ir.LocalVal:
		loc := v.Location()
		if loc == nil {
			panic("x86: local value has no location at emit time")
		}
		switch loc.Where {
		case ir.Reg:
			return p.reg(v)
		case ir.SpillSlot:
			return fmt.Sprintf("%d(%%rbp)", loc.Offset)
		}
	}
	panic(fmt.Sprintf("x86: value not usable as an operand: %#v", v.Kind))
}

// mem renders ptr (a register holding an address) as an AT&T memory
// operand dereferencing it.
func (p *Printer) mem(ptr *ir.Value, size uint64) string {
	return fmt.Sprintf("(%s)", p.reg(ptr))
}

func (p *Printer) printElem(in *ir.Elem) {
	if lit, ok := in.Index.Kind.(ir.Literal); ok {
		off := p.elemOffset(in, lit.I32)
		p.printf("\tlea\t%d(%s), %s\n", off, p.reg(in.Base), p.reg(in.Dest))
		return
	}
	elemSize := p.unit.Types.SizeAlign(p.unit.Types.ArrayElem(p.unit.Types.Deref(in.Base.Type))).Size
	p.printf("\tmov\t%s, %s\n", p.operand(in.Index), p.reg(in.Dest))
	p.printf("\timul\t$%d, %s\n", elemSize, p.reg(in.Dest))
	p.printf("\tadd\t%s, %s\n", p.reg(in.Base), p.reg(in.Dest))
}

func (p *Printer) elemOffset(in *ir.Elem, index int32) int64 {
	pointee := p.unit.Types.Deref(in.Base.Type)
	if p.unit.Types.IsStruct(pointee) {
		return int64(p.unit.Types.StructMemberOffset(pointee, int(index)))
	}
	elem := p.unit.Types.ArrayElem(pointee)
	return int64(index) * int64(p.unit.Types.SizeAlign(elem).Size)
}

func (p *Printer) printConvert(in *ir.Convert) {
	switch in.Kind {
	case ir.ConvZext:
		p.printf("\tmovzx\t%s, %s\n", p.operand(in.Src), p.reg(in.Dest))
	case ir.ConvSext:
		p.printf("\tmovsx\t%s, %s\n", p.operand(in.Src), p.reg(in.Dest))
	case ir.ConvTrunc:
		// Truncation is just reading the low bytes of the same register;
		// since isel gave Src and Dest independent registers, copy at the
		// destination's (narrower) width.
		p.printf("\tmov\t%s, %s\n", p.narrowedOperand(in.Src, p.sizeOf(in.Dest)), p.reg(in.Dest))
	case ir.ConvInt2Ptr, ir.ConvPtr2Int, ir.ConvPtrcast:
		p.printf("\tmov\t%s, %s\n", p.operand(in.Src), p.reg(in.Dest))
	}
}

// narrowedOperand renders v's operand string as if its width were size,
// used by trunc where Src's own type is wider than Dest's.
func (p *Printer) narrowedOperand(v *ir.Value, size uint64) string {
	loc := v.Location()
	if loc != nil && loc.Where == ir.Reg {
		return "%" + target.Reg(loc.RegID).NameForSize(size)
	}
	return p.operand(v)
}

var opMnemonic = map[ir.BinOp]string{
	ir.OpAdd: "add", ir.OpSub: "sub", ir.OpAnd: "and", ir.OpOr: "or", ir.OpXor: "xor",
}

func (p *Printer) printOp(in *ir.Op) {
	switch in.Op {
	case ir.OpAdd, ir.OpSub, ir.OpAnd, ir.OpOr, ir.OpXor:
		p.printf("\tmov\t%s, %s\n", p.operand(in.Lhs), p.reg(in.Dest))
		p.printf("\t%s\t%s, %s\n", opMnemonic[in.Op], p.operand(in.Rhs), p.reg(in.Dest))
	case ir.OpMul:
		p.printf("\tmov\t%s, %s\n", p.operand(in.Lhs), p.reg(in.Dest))
		p.printf("\timul\t%s, %s\n", p.operand(in.Rhs), p.reg(in.Dest))
	case ir.OpSDiv, ir.OpSMod:
		p.printf("\tmov\t%s, %%rax\n", p.operand(in.Lhs))
		p.printf("\tcqto\n")
		p.printf("\tidiv\t%s\n", p.divisorOperand(in.Rhs))
	case ir.OpUDiv, ir.OpUMod:
		p.printf("\tmov\t%s, %%rax\n", p.operand(in.Lhs))
		p.printf("\txor\t%%rdx, %%rdx\n")
		p.printf("\tdiv\t%s\n", p.divisorOperand(in.Rhs))
	case ir.OpShl:
		p.printShift(in, "shl")
	case ir.OpAShr:
		p.printShift(in, "sar")
	case ir.OpLShr:
		p.printShift(in, "shr")
	}
}

// divisorOperand renders in's divisor for idiv/div, which (unlike most
// x86 ALU ops) rejects an immediate operand: a literal divisor is first
// moved into rcx, which div/mod never otherwise touches and which
// regalloc's scratch pool excludes (it is reserved for shift counts), so
// it cannot collide with a register regalloc has handed to a live value.
func (p *Printer) divisorOperand(v *ir.Value) string {
	if lit, ok := v.Kind.(ir.Literal); ok {
		p.printf("\tmov\t$%d, %%rcx\n", lit.I32)
		return "%rcx"
	}
	return p.operand(v)
}

func (p *Printer) printShift(in *ir.Op, mnemonic string) {
	p.printf("\tmov\t%s, %s\n", p.operand(in.Lhs), p.reg(in.Dest))
	if lit, ok := in.Rhs.Kind.(ir.Literal); ok {
		p.printf("\t%s\t$%d, %s\n", mnemonic, lit.I32, p.reg(in.Dest))
		return
	}
	p.printf("\t%s\t%%cl, %s\n", mnemonic, p.reg(in.Dest))
}

var cmpSetcc = map[ir.CmpOp]string{
	ir.CmpEq: "sete", ir.CmpNe: "setne",
	ir.CmpGt: "setg", ir.CmpGe: "setge", ir.CmpLt: "setl", ir.CmpLe: "setle",
}

func (p *Printer) printCmp(in *ir.Cmp) {
	p.printf("\tcmp\t%s, %s\n", p.operand(in.Rhs), p.operand(in.Lhs))
	p.printf("\t%s\t%s\n", cmpSetcc[in.Cmp], p.narrowedOperand(in.Dest, 1))
}

// printCopy renders either a plain register move or, when the source is
// an addressable kind isel left unmaterialized-in-place, a lea.
func (p *Printer) printCopy(in *ir.Copy, labels *labelAssigner) {
	switch k := in.Src.Kind.(type) {
	case ir.AllocaVal:
		off, _ := in.Src.AllocaOffset()
		p.printf("\tlea\t%d(%%rbp), %s\n", off, p.reg(in.Dest))
	case ir.GlobalRef:
		p.printf("\tlea\t%s(%%rip), %s\n", p.mangler.Mangle(k.Name), p.reg(in.Dest))
	case ir.LabelVal:
		p.printf("\tlea\t%s(%%rip), %s\n", labels.For(k.Block), p.reg(in.Dest))
	default:
		p.printf("\tmov\t%s, %s\n", p.operand(in.Src), p.reg(in.Dest))
	}
}

func (p *Printer) printCall(in *ir.Call) {
	if ref, ok := in.Callee.Kind.(ir.GlobalRef); ok {
		p.printf("\tcall\t%s\n", p.mangler.Mangle(ref.Name))
		return
	}
	p.printf("\tcall\t*%s\n", p.operand(in.Callee))
}

// printRet moves the return value (if any) into rax and unwinds the
// frame. Every block ends in exactly one terminator, and `ret` is one of
// the shapes the grammar allows as a terminator directly inside any
// block — there is no shared join block for returns.
func (p *Printer) printRet(in *ir.Ret, f *frame) {
	if in.Val != nil {
		p.printf("\tmov\t%s, %%%s\n", p.operand(in.Val), target.RAX.NameForSize(p.sizeOf(in.Val)))
	}
	p.printf("\tleave\n\tret\n")
}
