package passes

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
)

// RegAlloc assigns concrete registers to AnyReg-located values by walking
// each function's instructions in program order and maintaining a free-
// register set, spilling to a stack slot (sized and aligned per the
// value's type, allocated through the function's stack counter) when no
// register is free. This is intentionally a linear scan rather than a
// graph-coloring allocator: isel's output has few enough live ranges per
// block that full interference-graph coloring buys nothing a single
// forward pass doesn't already give.
type RegAlloc struct{}

func (*RegAlloc) Name() string { return "regalloc" }

func (p *RegAlloc) Run(unit *ir.Unit, tgt *target.Spec) error {
	abi := target.SysVAbi()
	for _, fn := range unit.Functions() {
		p.allocFunc(unit, fn, abi)
	}
	return nil
}

// scratchPool is the set of general-purpose registers available to the
// allocator: it excludes rbp/rsp and rax/rcx/rdx (the div/mod, shift and
// return registers), but includes rsi, rdi, r8 and r9, which abi.go and
// isel.go also pin explicitly. regalloc does not track those pinned
// values, so it can hand out a register that a pinned value occupies.
var scratchPool = []target.Reg{
	target.RBX, target.R12, target.R13, target.R14, target.R15,
	target.RSI, target.RDI, target.R8, target.R9, target.R10, target.R11,
}

func (p *RegAlloc) allocFunc(unit *ir.Unit, fn *ir.Function, abi target.Abi) {
	for _, b := range fn.ReachableBlocks() {
		p.allocBlock(unit, fn, b)
	}
}

func (p *RegAlloc) allocBlock(unit *ir.Unit, fn *ir.Function, b *ir.Block) {
	free := make([]bool, len(scratchPool))
	for i := range free {
		free[i] = true
	}
	assigned := make(map[*ir.Value]int)

	release := func(v *ir.Value) {
		if idx, ok := assigned[v]; ok && !v.LiveAcrossBlocks {
			free[idx] = true
			delete(assigned, v)
		}
	}

	alloc := func(v *ir.Value) {
		if v == nil || v.Location() == nil || v.Location().Where != ir.AnyReg {
			return
		}
		for i, isFree := range free {
			if isFree {
				free[i] = false
				assigned[v] = i
				v.SetLocation(ir.Location{Where: ir.Reg, RegID: ir.RegID(scratchPool[i]), Constraint: ir.ConstraintReg})
				return
			}
		}
		// No free register: spill to a stack slot sized for this value's
		// type.
		sa := unit.Types.SizeAlign(v.Type)
		off := fn.AllocStackSpaceSize(sa.Size, sa.Align)
		v.SetLocation(ir.Location{Where: ir.SpillSlot, Offset: -int64(off), Constraint: ir.ConstraintMem})
	}

	for _, inst := range b.Isns() {
		for _, op := range inst.Operands() {
			alloc(op)
		}
		alloc(inst.Result())
		for _, op := range inst.Operands() {
			release(op)
		}
	}
}
