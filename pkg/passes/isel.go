package passes

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
	"github.com/bpetersen/ssac/pkg/types"
)

// ISel lowers each instruction's operands onto the categories the x86
// emitter expects: Reg, MemPtr, MemContents, Int, Implicit,
// Input, Output, Addressed. ssac's category table is small enough that
// a full per-instruction constraint-set search collapses to a direct
// rule per instruction kind; the conversions it inserts are the same
// ones a constraint-set search would pick (zero conversions when a value
// is already correctly placed, one scratch copy otherwise) — documented
// simplification, see DESIGN.md.
//
// Two conversions are hard requirements of the x86-64 idiom and are
// always inserted regardless of the operand's current placement:
//   - div/mod pins the dividend into rax (and implicitly clobbers rdx).
//   - shift counts that are not compile-time constants must be in cl.
type ISel struct{}

func (*ISel) Name() string { return "isel" }

func (p *ISel) Run(unit *ir.Unit, tgt *target.Spec) error {
	for _, fn := range unit.Functions() {
		eachReachableBlock(fn, func(b *ir.Block) {
			p.iselBlock(unit, b)
		})
	}
	return nil
}

func (p *ISel) iselBlock(unit *ir.Unit, b *ir.Block) {
	isns := b.Isns()
	out := make([]ir.Instruction, 0, len(isns))
	for _, inst := range isns {
		out = append(out, p.lower(unit, inst)...)
	}
	b.SetIsns(out)
}

func pinReg(v *ir.Value, reg target.Reg) {
	v.SetLocation(ir.Location{Where: ir.Reg, RegID: ir.RegID(reg), Constraint: ir.ConstraintReg})
}

// wantsReg reports whether v is a plain SSA local still missing a
// location. Addressable kinds (AllocaVal, GlobalRef, LabelVal) are never
// given a Location directly — they are materialized into a register by
// an explicit lea, via materialize below.
func wantsReg(v *ir.Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind.(type) {
	case ir.Literal, ir.AllocaVal, ir.GlobalRef, ir.LabelVal, ir.Undef:
		return false
	}
	return v.Location() == nil
}

func ensureAnyReg(v *ir.Value) {
	if wantsReg(v) {
		v.SetLocation(ir.Location{Where: ir.AnyReg, Constraint: ir.ConstraintReg})
	}
}

// needsAddress reports whether v names a compile-time address (a stack
// slot, a global, or a block label) that has no register of its own and
// must be materialized with lea before use.
func needsAddress(v *ir.Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind.(type) {
	case ir.AllocaVal, ir.GlobalRef, ir.LabelVal:
		return true
	}
	return false
}

// materialize ensures v is usable as a register operand: plain locals are
// just given an AnyReg location in place, while addressable kinds are
// copied into a fresh register by a Copy instruction the emitter renders
// as lea (Printer distinguishes on the Copy's source kind). Returns the
// instructions to splice in before the use (nil if none) and the value to
// use in the operand's place.
func materialize(v *ir.Value) (pre []ir.Instruction, use *ir.Value) {
	if !needsAddress(v) {
		ensureAnyReg(v)
		return nil, v
	}
	scratch := ir.NewLocal(v.Type, "")
	scratch.SetLocation(ir.Location{Where: ir.AnyReg, Constraint: ir.ConstraintReg})
	return []ir.Instruction{ir.NewCopy(v, scratch)}, scratch
}

// copyToReg inserts a scratch copy of v pinned to reg, returning the new
// value. Used where an x86 idiom op requires a fixed physical register
// regardless of where the operand currently lives.
func copyToReg(v *ir.Value, reg target.Reg) (pre ir.Instruction, scratch *ir.Value) {
	scratch = ir.NewLocal(v.Type, "")
	pinReg(scratch, reg)
	return ir.NewCopy(v, scratch), scratch
}

func (p *ISel) lower(unit *ir.Unit, inst ir.Instruction) []ir.Instruction {
	switch in := inst.(type) {
	case *ir.Op:
		return p.lowerOp(in)
	case *ir.Cmp:
		ensureAnyReg(in.Lhs)
		ensureAnyReg(in.Rhs)
		ensureAnyReg(in.Dest)
		return []ir.Instruction{in}
	case *ir.Load:
		pre, ptr := materialize(in.Ptr)
		in.Ptr = ptr
		ensureAnyReg(in.Dest)
		return append(pre, in)
	case *ir.Store:
		preVal, val := materialize(in.Val)
		prePtr, ptr := materialize(in.Ptr)
		in.Val, in.Ptr = val, ptr
		out := append(preVal, prePtr...)
		return append(out, in)
	case *ir.Elem:
		pre, base := materialize(in.Base)
		in.Base = base
		ensureAnyReg(in.Index)
		ensureAnyReg(in.Dest)
		return append(pre, in)
	case *ir.Ptradd:
		pre, ptr := materialize(in.Ptr)
		in.Ptr = ptr
		ensureAnyReg(in.Int)
		ensureAnyReg(in.Dest)
		return append(pre, in)
	case *ir.Ptrsub:
		pre, lhs := materialize(in.Lhs)
		in.Lhs = lhs
		ensureAnyReg(in.Rhs)
		ensureAnyReg(in.Dest)
		return append(pre, in)
	case *ir.Convert:
		pre, src := materialize(in.Src)
		in.Src = src
		ensureAnyReg(in.Dest)
		return append(pre, in)
	case *ir.Copy:
		pre, src := materialize(in.Src)
		in.Src = src
		ensureAnyReg(in.Dest)
		return append(pre, in)
	case *ir.Call:
		var pre []ir.Instruction
		if !isDirectCallee(in.Callee) {
			p2, callee := materialize(in.Callee)
			pre = append(pre, p2...)
			in.Callee = callee
		}
		for i, a := range in.Args {
			p2, arg := materialize(a)
			pre = append(pre, p2...)
			in.Args[i] = arg
		}
		ensureAnyReg(in.Dest)
		return append(pre, in)
	case *ir.JmpComputed:
		pre, addr := materialize(in.Target)
		in.Target = addr
		return append(pre, in)
	case *ir.Memcpy:
		// Only large, not-statically-inlined copies reach isel still shaped
		// as Memcpy (expand_builtins lowers small ones to load+store). The
		// remaining copy becomes a `rep movsb`, which the x86-64 idiom pins
		// to rdi/rsi/rcx regardless of where the operands currently live.
		copyDst, dst := copyToReg(in.Dst, target.RDI)
		copySrc, src := copyToReg(in.Src, target.RSI)
		in.Dst, in.Src = dst, src
		i8 := unit.Types.Primitive(types.I8)
		size := ir.NewLiteral(i8, 0)
		if pointee := unit.Types.Deref(dst.Type); pointee != nil {
			size = ir.NewLiteral(i8, int32(unit.Types.SizeAlign(pointee).Size))
		}
		countScratch := ir.NewLocal(size.Type, "")
		pinReg(countScratch, target.RCX)
		copyCount := ir.NewCopy(size, countScratch)
		return []ir.Instruction{copyDst, copySrc, copyCount, in}
	default:
		return []ir.Instruction{in}
	}
}

// isDirectCallee reports whether callee can be encoded as a direct
// `call mangled_name` (a reference to a known global function), as
// opposed to needing to be loaded into a register for `call *reg`.
func isDirectCallee(callee *ir.Value) bool {
	_, ok := callee.Kind.(ir.GlobalRef)
	return ok
}

func (p *ISel) lowerOp(in *ir.Op) []ir.Instruction {
	if in.Op.IsDivMod() {
		copyLhs, dividend := copyToReg(in.Lhs, target.RAX)
		in.Lhs = dividend
		resultReg := target.RAX
		if in.Op == ir.OpSMod || in.Op == ir.OpUMod {
			resultReg = target.RDX
		}
		pinReg(in.Dest, resultReg)
		ensureAnyReg(in.Rhs)
		return []ir.Instruction{copyLhs, in}
	}
	if in.Op.IsShift() {
		ensureAnyReg(in.Lhs)
		ensureAnyReg(in.Dest)
		if _, isLit := in.Rhs.Kind.(ir.Literal); !isLit {
			copyRhs, count := copyToReg(in.Rhs, target.RCX)
			in.Rhs = count
			return []ir.Instruction{copyRhs, in}
		}
		return []ir.Instruction{in}
	}
	ensureAnyReg(in.Lhs)
	ensureAnyReg(in.Rhs)
	ensureAnyReg(in.Dest)
	return []ir.Instruction{in}
}
