package passes

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
)

// ABI marshals values at function boundaries and call sites into the
// target's calling-convention locations: incoming
// arguments are pinned to the arch's arg_regs (spilling to the incoming
// stack-argument area beyond that), call arguments are copied into
// fresh ABI-pinned temporaries immediately before the call, struct
// returns are passed as an implicit leading stret pointer, and the
// function's prologue stack-use counter is advanced for every stack slot
// this pass allocates.
type ABI struct {
	Conv target.Abi
}

func (*ABI) Name() string { return "abi" }

func (p *ABI) Run(unit *ir.Unit, tgt *target.Spec) error {
	for _, fn := range unit.Functions() {
		p.assignIncomingArgs(fn)
		eachReachableBlock(fn, func(b *ir.Block) {
			p.assignAllocaSlots(unit, fn, b)
			p.marshalCalls(unit, fn, b)
		})
	}
	return nil
}

// assignAllocaSlots gives every Alloca in b a concrete frame-base offset,
// reserving space from the function's stack-use counter sized and aligned
// for the slot's type. The emitter reads this offset back through
// Value.AllocaOffset.
func (p *ABI) assignAllocaSlots(unit *ir.Unit, fn *ir.Function, b *ir.Block) {
	for _, inst := range b.Isns() {
		alloca, ok := inst.(*ir.Alloca)
		if !ok {
			continue
		}
		sa := unit.Types.SizeAlign(alloca.Ty)
		off := fn.AllocStackSpaceSize(sa.Size, sa.Align)
		// Stored as a negative rbp-relative displacement, matching
		// regalloc's spill-slot convention, so the emitter treats both the
		// same way.
		alloca.Dest.SetAllocaOffset(-int64(off))
	}
}

func (p *ABI) assignIncomingArgs(fn *ir.Function) {
	argVals := fn.ArgVals()
	for idx := 0; idx < len(argVals); idx++ {
		v, ok := argVals[idx]
		if !ok {
			continue
		}
		v.ABI = true
		if idx < len(p.Conv.ArgRegs) {
			v.SetLocation(ir.Location{Where: ir.Reg, RegID: ir.RegID(p.Conv.ArgRegs[idx]), Constraint: ir.ConstraintReg})
			continue
		}
		// Stack-passed incoming arguments live in the caller's frame above
		// the return address; ssac tracks them as fixed positive offsets
		// from the frame base rather than through the callee's own
		// (negative-offset) spill counter.
		stackIdx := idx - len(p.Conv.ArgRegs)
		v.SetLocation(ir.Location{Where: ir.SpillSlot, Offset: int64(16 + 8*stackIdx), Constraint: ir.ConstraintMem})
	}
}

func (p *ABI) marshalCalls(unit *ir.Unit, fn *ir.Function, b *ir.Block) {
	isns := b.Isns()
	var out []ir.Instruction
	changed := false
	for _, inst := range isns {
		call, ok := inst.(*ir.Call)
		if !ok {
			out = append(out, inst)
			continue
		}
		changed = true
		out = append(out, p.marshalCall(unit, fn, call)...)
	}
	if changed {
		b.SetIsns(out)
	}
}

func (p *ABI) marshalCall(unit *ir.Unit, fn *ir.Function, call *ir.Call) []ir.Instruction {
	var pre []ir.Instruction

	args := call.Args
	retIsStruct := false
	if call.Dest != nil && unit.Types.IsPointer(call.Dest.Type) {
		if pointee := unit.Types.Deref(call.Dest.Type); pointee != nil {
			retIsStruct = unit.Types.IsStruct(pointee)
		}
	}

	regIdx := 0
	place := func(v *ir.Value) {
		if regIdx < len(p.Conv.ArgRegs) {
			tmp := ir.NewLocal(v.Type, "")
			tmp.ABI = true
			tmp.SetLocation(ir.Location{Where: ir.Reg, RegID: ir.RegID(p.Conv.ArgRegs[regIdx]), Constraint: ir.ConstraintReg})
			pre = append(pre, ir.NewCopy(v, tmp))
			regIdx++
			return
		}
		// Stack-passed outgoing arguments: the isel/emit stages push them;
		// ssac records the stack-spill usage here so the caller's frame
		// sizing accounts for it.
		fn.AllocStackSpaceSize(unit.Types.SizeAlign(v.Type).Size, unit.Types.SizeAlign(v.Type).Align)
	}

	if retIsStruct && call.Dest != nil {
		place(call.Dest)
	}
	for _, a := range args {
		place(a)
	}

	pre = append(pre, call)
	return pre
}
