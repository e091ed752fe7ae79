package ir

import "fmt"

// BlockKind is the terminator shape of a block. A block's kind starts at
// Unknown and transitions to exactly one of the others, once, via
// set_branch/set_jmp/set_exit/set_computed_jmp.
type BlockKind int

const (
	KindUnknown BlockKind = iota
	KindEntry
	KindExit
	KindEntryExit
	KindBranch
	KindJmp
	KindJmpComputed
)

// Block is a CFG node: a label, an ordered instruction list, and its
// terminator shape. The instruction list and kind are exposed through
// mutator methods rather than direct field access, because the parser
// walks forward filling in a block it may only hold a shared reference
// to (the "interior mutability of blocks").
type Block struct {
	label string
	hasLabel bool

	isns []Instruction
	kind BlockKind

	branchT, branchF *Block // valid when kind == KindBranch
	jmpTarget        *Block // valid when kind == KindJmp
	jmpComputedHint  *Block // best-effort hint only; real targets come from Label instructions

	preds []*Block

	emitted bool
	dag     *DAG
}

// NewLabelled creates a tenative block (no instructions yet) with the
// given label.
func NewLabelled(name string) *Block {
	return &Block{label: name, hasLabel: true}
}

// NewEntry creates the unique entry block, which carries no label.
func NewEntry() *Block {
	return &Block{}
}

// Label returns the block's label, or "" if it is the entry block.
func (b *Block) Label() string {
	if !b.hasLabel {
		return ""
	}
	return b.label
}

// HasLabel reports whether the block has an explicit label (false only
// for the entry block).
func (b *Block) HasLabel() bool { return b.hasLabel }

// Kind returns the block's current terminator shape.
func (b *Block) Kind() BlockKind { return b.kind }

// IsTenative reports whether the block has no instructions yet — the
// state a forward-referenced label is left in until its definition is
// parsed.
func (b *Block) IsTenative() bool { return len(b.isns) == 0 }

// IsUnknownEnding reports whether the block's terminator kind has not yet
// been fixed (KindUnknown, or an entry block not yet terminated).
func (b *Block) IsUnknownEnding() bool { return b.kind == KindUnknown || b.kind == KindEntry }

// AddIsn appends an instruction to the block.
func (b *Block) AddIsn(inst Instruction) {
	b.isns = append(b.isns, inst)
}

// Isns returns the block's instruction list. Callers mutating kind or
// replacing instructions must not do so while iterating this slice from
// another goroutine — ssac is single-threaded, so this is a documentation
// note rather than an enforced lock.
func (b *Block) Isns() []Instruction { return b.isns }

// SetIsns replaces the block's instruction list wholesale (used by passes
// that rewrite a block's body, e.g. isel's conversion insertion).
func (b *Block) SetIsns(isns []Instruction) { b.isns = isns }

// SetBranch fixes the block's terminator as a conditional branch to t (if
// true) or f (if false). Precondition: IsUnknownEnding(). t and f gain b
// as a predecessor.
func (b *Block) SetBranch(t, f *Block) {
	if !b.IsUnknownEnding() {
		panic("SetBranch: block kind already fixed")
	}
	b.kind = KindBranch
	b.branchT, b.branchF = t, f
	t.addPred(b)
	f.addPred(b)
}

// SetJmp fixes the block's terminator as an unconditional jump to target.
// Precondition: IsUnknownEnding(). target gains b as a predecessor.
func (b *Block) SetJmp(target *Block) {
	if !b.IsUnknownEnding() {
		panic("SetJmp: block kind already fixed")
	}
	b.kind = KindJmp
	b.jmpTarget = target
	target.addPred(b)
}

// SetExit fixes the block's terminator as the function's exit (ret/leave).
// Precondition: IsUnknownEnding(), unless the block is also the entry
// block (a one-block function), in which case it becomes EntryExit.
func (b *Block) SetExit() {
	if b.kind == KindEntry {
		b.kind = KindEntryExit
		return
	}
	if !b.IsUnknownEnding() {
		panic("SetExit: block kind already fixed")
	}
	b.kind = KindExit
}

// SetComputedJmp fixes the block's terminator as a computed goto through a
// label-valued pointer. Precondition: IsUnknownEnding().
func (b *Block) SetComputedJmp(target *Block) {
	if !b.IsUnknownEnding() {
		panic("SetComputedJmp: block kind already fixed")
	}
	b.kind = KindJmpComputed
	b.jmpComputedHint = target
}

// MarkEntry marks a freshly created block as the function's entry block.
func (b *Block) MarkEntry() { b.kind = KindEntry }

// Branches returns the true/false targets of a Branch-kind block.
func (b *Block) Branches() (t, f *Block) { return b.branchT, b.branchF }

// JmpTarget returns the target of a Jmp-kind block.
func (b *Block) JmpTarget() *Block { return b.jmpTarget }

// Successors returns every statically known successor of b, used for CFG
// traversal.
func (b *Block) Successors() []*Block {
	switch b.kind {
	case KindBranch:
		return []*Block{b.branchT, b.branchF}
	case KindJmp:
		return []*Block{b.jmpTarget}
	default:
		return nil
	}
}

// addPred records pred as a predecessor of b.
func (b *Block) addPred(pred *Block) {
	for _, p := range b.preds {
		if p == pred {
			return
		}
	}
	b.preds = append(b.preds, pred)
}

// Preds returns the block's predecessor list.
func (b *Block) Preds() []*Block { return b.preds }

// SetDAG attaches the DAG built by the to_dag pass. May only be called
// once per block.
func (b *Block) SetDAG(d *DAG) {
	if b.dag != nil {
		panic("SetDAG: block already has a DAG")
	}
	b.dag = d
}

// DAG returns the block's DAG, or nil before to_dag has run.
func (b *Block) DAG() *DAG { return b.dag }

// Emitted reports whether this block has been marked as printed (see
// MarkEmitted); it does not change the bit itself.
func (b *Block) Emitted() bool { return b.emitted }

// MarkEmitted sets the emitted bit.
func (b *Block) MarkEmitted() { b.emitted = true }

// ResetEmitted clears the emitted bit, for re-running a DFS-based pass.
func (b *Block) ResetEmitted() { b.emitted = false }

func (b *Block) String() string {
	if !b.hasLabel {
		return "<entry>"
	}
	return fmt.Sprintf("%s:", b.label)
}

// CheckValLife scans every instruction in the block; for each distinct
// referenced value, if `defBlock` (the map of value -> block it was first
// seen in) already has a different block recorded, the value is marked
// LiveAcrossBlocks. Mirrors the check_val_life.
func (b *Block) CheckValLife(defBlock map[*Value]*Block) {
	see := func(v *Value) {
		if v == nil {
			return
		}
		if prev, ok := defBlock[v]; ok {
			if prev != b {
				v.LiveAcrossBlocks = true
			}
			return
		}
		defBlock[v] = b
	}
	for _, inst := range b.isns {
		for _, op := range inst.Operands() {
			see(op)
		}
		if r := inst.Result(); r != nil {
			see(r)
		}
	}
}
