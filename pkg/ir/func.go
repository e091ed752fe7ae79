package ir

import (
	"fmt"

	"github.com/bpetersen/ssac/pkg/arena"
	"github.com/bpetersen/ssac/pkg/types"
)

// FuncAttr is a bitmask of function linkage/visibility attributes.
type FuncAttr uint8

const (
	AttrInternal FuncAttr = 1 << 0
	AttrWeak     FuncAttr = 1 << 1
)

// Function owns a block arena, a label-to-block map, and the argument
// bookkeeping needed to match values to ABI locations later in the
// pipeline.
type Function struct {
	Name    string
	Mangled string // set lazily by the emitter's name-mangling cache
	Type    *types.Type
	ArgNames []string
	Attr    FuncAttr

	blocks   *arena.Arena[Block]
	byLabel  map[string]*Block
	entry    *Block
	exit     *Block

	argVals map[int]*Value

	stackUse uint64 // accumulated stack-space counter
	privateLabelCounter int

	lifetimeFilled bool
}

// NewFunction creates an empty function. blocks is the arena the caller
// owns for this function's blocks (one per function).
func NewFunction(name string, ty *types.Type, argNames []string, blocks *arena.Arena[Block]) *Function {
	return &Function{
		Name:     name,
		Type:     ty,
		ArgNames: argNames,
		blocks:   blocks,
		byLabel:  make(map[string]*Block),
		argVals:  make(map[int]*Value),
	}
}

// GetBlock interns a block by label into the function's block arena,
// creating a tenative block on first reference (supports forward
// references to labels not yet defined). Returns the block and whether it
// was freshly created.
func (f *Function) GetBlock(label string) (b *Block, created bool) {
	if existing, ok := f.byLabel[label]; ok {
		return existing, false
	}
	nb := f.blocks.Alloc(*NewLabelled(label))
	f.byLabel[label] = nb
	return nb, true
}

// EntryBlock returns the function's entry block, lazily creating it if
// create is true and none exists yet.
func (f *Function) EntryBlock(create bool) *Block {
	if f.entry == nil && create {
		f.entry = f.blocks.Alloc(*NewEntry())
		f.entry.MarkEntry()
	}
	return f.entry
}

// ExitBlock lazily creates a privately labeled exit block, using the
// unit's private-label prefix and this function's uniqueness counter.
func (f *Function) ExitBlock(privatePrefix string) *Block {
	if f.exit == nil {
		f.privateLabelCounter++
		label := fmt.Sprintf("%sexit%d", privatePrefix, f.privateLabelCounter)
		f.exit = f.blocks.Alloc(*NewLabelled(label))
		f.exit.SetExit()
	}
	return f.exit
}

// NewPrivateLabel allocates a fresh function-scoped private label, used by
// passes that synthesize blocks (e.g. isel splitting a block around a
// conversion).
func (f *Function) NewPrivateLabel(privatePrefix string) string {
	f.privateLabelCounter++
	return fmt.Sprintf("%sL%d", privatePrefix, f.privateLabelCounter)
}

// RegisterArgVal binds argument index idx to value v. Panics on a
// duplicate registration, mirroring the original's assert.
func (f *Function) RegisterArgVal(idx int, v *Value) {
	if _, exists := f.argVals[idx]; exists {
		panic(fmt.Sprintf("argument %d already registered", idx))
	}
	f.argVals[idx] = v
}

// ArgVal returns the value bound to argument index idx, or nil.
func (f *Function) ArgVal(idx int) *Value { return f.argVals[idx] }

// ArgVals returns a copy of the index-to-value argument map.
func (f *Function) ArgVals() map[int]*Value {
	out := make(map[int]*Value, len(f.argVals))
	for k, v := range f.argVals {
		out[k] = v
	}
	return out
}

// AllocStackSpaceSize reserves size bytes aligned to align within the
// function's stack frame and returns the (positive) distance below the
// frame base of the new slot's lowest byte, so the slot occupies
// [base-off, base-off+size).
func (f *Function) AllocStackSpaceSize(size, align uint64) uint64 {
	if align == 0 {
		align = 1
	}
	f.stackUse = roundUp(f.stackUse, align)
	f.stackUse += size
	return f.stackUse
}

// StackUse returns the function's accumulated stack-space counter.
func (f *Function) StackUse() uint64 { return f.stackUse }

func roundUp(n, align uint64) uint64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

// Blocks returns every block allocated for this function, in allocation
// order (not CFG order).
func (f *Function) Blocks() []*Block { return f.blocks.All() }

// BlockSplit moves the tail of b's instructions starting at firstNew into
// a fresh block, copies b's terminator metadata onto the new block, and
// resets b to KindUnknown. The caller must subsequently fix b's kind (it
// is left pointing nowhere). Forbidden once LifetimeFilled is true.
func (f *Function) BlockSplit(b *Block, firstNew int) *Block {
	if f.lifetimeFilled {
		panic("BlockSplit: function lifetime already finalized")
	}
	tail := append([]Instruction(nil), b.isns[firstNew:]...)
	b.isns = b.isns[:firstNew]

	label := f.NewPrivateLabel(".L")
	nb := f.blocks.Alloc(*NewLabelled(label))
	nb.isns = tail
	nb.kind = b.kind
	nb.branchT, nb.branchF = b.branchT, b.branchF
	nb.jmpTarget = b.jmpTarget
	nb.jmpComputedHint = b.jmpComputedHint
	// Successor edges that pointed at b's old terminator now belong to nb.
	if nb.kind == KindBranch {
		replacePred(nb.branchT, b, nb)
		replacePred(nb.branchF, b, nb)
	} else if nb.kind == KindJmp {
		replacePred(nb.jmpTarget, b, nb)
	}

	b.kind = KindUnknown
	b.branchT, b.branchF, b.jmpTarget = nil, nil, nil

	return nb
}

func replacePred(target, old, replacement *Block) {
	if target == nil {
		return
	}
	for i, p := range target.preds {
		if p == old {
			target.preds[i] = replacement
			return
		}
	}
}

// Finalize runs CheckValLife on every block reachable from entry, seeding
// the def-block map with argument values as if defined in the entry
// block, then sets LifetimeFilled.
func (f *Function) Finalize() {
	defBlock := make(map[*Value]*Block)
	entry := f.EntryBlock(false)
	for _, v := range f.argVals {
		if entry != nil {
			defBlock[v] = entry
		}
	}
	for _, b := range f.ReachableBlocks() {
		b.CheckValLife(defBlock)
	}
	f.lifetimeFilled = true
}

// LifetimeFilled reports whether Finalize has run.
func (f *Function) LifetimeFilled() bool { return f.lifetimeFilled }

// ReachableBlocks returns every block reachable from entry via Branch/Jmp
// edges (DFS), plus the exit block, plus every block that is the target
// of a Label instruction anywhere in the function (the conservative
// computed-goto over-approximation sanctions).
func (f *Function) ReachableBlocks() []*Block {
	seen := make(map[*Block]bool)
	var order []*Block
	var visit func(*Block)
	visit = func(b *Block) {
		if b == nil || seen[b] {
			return
		}
		seen[b] = true
		order = append(order, b)
		for _, s := range b.Successors() {
			visit(s)
		}
	}
	visit(f.EntryBlock(false))
	if f.exit != nil {
		visit(f.exit)
	}
	// Computed-goto targets: any block whose address is taken via a Label
	// instruction is conservatively treated as reachable.
	for _, b := range f.blocks.All() {
		for _, inst := range b.isns {
			if lbl, ok := inst.(*Label); ok {
				visit(lbl.Target)
			}
		}
	}
	return order
}
