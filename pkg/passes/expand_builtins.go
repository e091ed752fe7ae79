package passes

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
)

// ExpandBuiltins rewrites each memcpy into a lowered sequence of loads and
// stores (for small, statically-known-size copies the parser has typed
// identically on both sides), leaving larger copies as a Memcpy for isel
// to lower into a `rep movsb` idiom instead. Value identity of the
// memcpy's operands is preserved: the same *ir.Value pointers are reused
// in the expansion rather than rebuilt.
type ExpandBuiltins struct{}

func (*ExpandBuiltins) Name() string { return "expand_builtins" }

// inlineThreshold is the byte size under which a memcpy expands inline as
// loads/stores rather than being left for isel's rep-movsb lowering.
const inlineThreshold = 64

func (p *ExpandBuiltins) Run(unit *ir.Unit, tgt *target.Spec) error {
	for _, fn := range unit.Functions() {
		eachReachableBlock(fn, func(b *ir.Block) {
			p.expandBlock(unit, b)
		})
	}
	return nil
}

func (p *ExpandBuiltins) expandBlock(unit *ir.Unit, b *ir.Block) {
	isns := b.Isns()
	out := make([]ir.Instruction, 0, len(isns))
	for _, inst := range isns {
		mc, ok := inst.(*ir.Memcpy)
		if !ok {
			out = append(out, inst)
			continue
		}
		out = append(out, p.expandMemcpy(unit, mc)...)
	}
	b.SetIsns(out)
}

// expandMemcpy lowers one memcpy into per-member loads/stores when the
// pointee's structural size is known and small, else leaves it as-is for
// isel to lower into a `rep movsb` sequence.
func (p *ExpandBuiltins) expandMemcpy(unit *ir.Unit, mc *ir.Memcpy) []ir.Instruction {
	pointee := unit.Types.Deref(mc.Dst.Type)
	if pointee == nil {
		return []ir.Instruction{mc}
	}
	sa := unit.Types.SizeAlign(pointee)
	if sa.Size == 0 || sa.Size > inlineThreshold {
		return []ir.Instruction{mc}
	}

	tmp := ir.NewLocal(pointee, "")
	load := ir.NewLoad(mc.Src, tmp)
	store := ir.NewStore(tmp, mc.Dst)
	return []ir.Instruction{load, store}
}
