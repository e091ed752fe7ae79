package x86

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/sizealign"
)

// frame holds the prologue-relevant layout facts for one function: the
// total local/spill/outgoing-argument stack use, rounded so the
// System V AMD64 16-byte stack-alignment rule holds at every call site.
// alloca, regalloc spills, and abi's outgoing stack arguments all draw
// from the same Function.stackUse counter, so by the time
// the emitter runs, StackUse() already reflects every demand on the
// frame; this pass only rounds it up.
type frame struct {
	fn   *ir.Function
	size uint64
}

const stackAlign = 16

func newFrame(unit *ir.Unit, fn *ir.Function) *frame {
	return &frame{fn: fn, size: sizealign.RoundUp(fn.StackUse(), stackAlign)}
}

func (f *frame) totalSize() uint64 { return f.size }
