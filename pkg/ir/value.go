// Package ir is the SSA data model: values and their locations,
// instructions, basic blocks, functions, globals, and the translation
// unit that aggregates them. One IR suffices end to end because ssac's
// input already arrives in SSA-CFG form — there is no multi-stage
// lowering chain requiring distinct IRs at each stage.
package ir

import (
	"fmt"

	"github.com/bpetersen/ssac/pkg/types"
)

// LocKind is the placement kind of a Location.
type LocKind int

const (
	Nowhere LocKind = iota
	AnyReg
	Reg
	SpillSlot
)

// Constraint is a bitmask of the location constraints a value's use site
// may impose.
type Constraint uint8

const (
	ConstraintNone  Constraint = 0
	ConstraintReg   Constraint = 1 << 0
	ConstraintMem   Constraint = 1 << 1
	ConstraintConst Constraint = 1 << 2
)

// RegID identifies a physical register; its meaning is target-defined.
type RegID int

// Location is the physical placement assigned to a value.
type Location struct {
	Where      LocKind
	RegID      RegID // valid when Where == Reg
	Offset     int64 // valid when Where == SpillSlot
	Constraint Constraint
}

// IsReg reports whether the location names a register (concrete or not
// yet assigned).
func (l *Location) IsReg() bool {
	return l != nil && (l.Where == AnyReg || l.Where == Reg)
}

// IsMem reports whether the location is (or will be) a memory operand.
func (l *Location) IsMem() bool {
	return l != nil && l.Where == SpillSlot
}

// ValueKind tags the variant of a Value.
type ValueKind interface {
	isValueKind()
}

// Literal is a compile-time-known i32 constant.
type Literal struct{ I32 int32 }

// GlobalRef names a global by its unit-scoped name.
type GlobalRef struct{ Name string }

// LabelVal is the address of a named block, used for computed gotos.
type LabelVal struct{ Block *Block }

// Undef is an unspecified value assignable to any register.
type Undef struct{}

// LocalVal is an SSA-defined local, optionally carrying an assigned
// Location once a pass has placed it.
type LocalVal struct {
	Name string
	Loc  *Location
}

// AllocaVal is the pointer produced by a stack allocation. Offset is the
// byte offset from the frame base, assigned by the abi pass once the
// slot's size and alignment are known; it is meaningless (and unused)
// until then.
type AllocaVal struct {
	Slot   string
	Name   string
	Offset int64
	placed bool
}

func (Literal) isValueKind()   {}
func (GlobalRef) isValueKind() {}
func (LabelVal) isValueKind()  {}
func (Undef) isValueKind()     {}
func (LocalVal) isValueKind()  {}
func (AllocaVal) isValueKind() {}

// Value is an SSA value: a type plus a kind-tagged payload. Equality is
// identity — two locals with the same textual name but different
// definitions are distinct *Value pointers.
type Value struct {
	Type *types.Type
	Kind ValueKind

	ABI bool // pinned to an ABI-mandated register/stack slot
	Arg bool // is a function argument

	LiveAcrossBlocks bool // set by Function.finalize's value-lifetime scan

	refcount int
}

// NewLiteral creates an i32 literal value of the given type (usually an
// integer primitive, but the parser may attach any type to a default 0).
func NewLiteral(t *types.Type, v int32) *Value {
	return &Value{Type: t, Kind: Literal{I32: v}}
}

// NewGlobalRef creates a value referencing the named global.
func NewGlobalRef(t *types.Type, name string) *Value {
	return &Value{Type: t, Kind: GlobalRef{Name: name}}
}

// NewUndef creates an undef value of type t.
func NewUndef(t *types.Type) *Value {
	return &Value{Type: t, Kind: Undef{}}
}

// NewLocal creates a fresh SSA local with no location yet assigned.
func NewLocal(t *types.Type, name string) *Value {
	return &Value{Type: t, Kind: LocalVal{Name: name}}
}

// NewAllocaValue creates the pointer value produced by an Alloca instruction.
func NewAllocaValue(ptrTy *types.Type, slot, name string) *Value {
	return &Value{Type: ptrTy, Kind: AllocaVal{Slot: slot, Name: name}}
}

// NewLabelValue creates a block-address value for computed goto.
func NewLabelValue(t *types.Type, b *Block) *Value {
	return &Value{Type: t, Kind: LabelVal{Block: b}}
}

// Retain increments the value's reference count. Instruction constructors
// call this for every operand they capture.
func (v *Value) Retain() { v.refcount++ }

// Release decrements the value's reference count. Called when the
// instruction capturing v is removed or has v replaced.
func (v *Value) Release() {
	if v.refcount > 0 {
		v.refcount--
	}
}

// Refcount returns the current reference count, for tests asserting the
// "at most one owner frees each value" invariant.
func (v *Value) Refcount() int { return v.refcount }

// SetLocation assigns (or reassigns) the location of a local value. Panics
// if v is not a LocalVal — only SSA locals carry a Location.
func (v *Value) SetLocation(loc Location) {
	lv, ok := v.Kind.(LocalVal)
	if !ok {
		panic(fmt.Sprintf("SetLocation on non-local value kind %T", v.Kind))
	}
	lv.Loc = &loc
	v.Kind = lv
}

// Location returns the assigned location of a local value, or nil.
func (v *Value) Location() *Location {
	if lv, ok := v.Kind.(LocalVal); ok {
		return lv.Loc
	}
	return nil
}

// SetAllocaOffset records the frame-base offset assigned to a stack slot.
// Panics if v is not an AllocaVal.
func (v *Value) SetAllocaOffset(off int64) {
	av, ok := v.Kind.(AllocaVal)
	if !ok {
		panic(fmt.Sprintf("SetAllocaOffset on non-alloca value kind %T", v.Kind))
	}
	av.Offset = off
	av.placed = true
	v.Kind = av
}

// AllocaOffset returns the frame-base offset assigned to a stack slot, and
// whether one has been assigned yet.
func (v *Value) AllocaOffset() (int64, bool) {
	if av, ok := v.Kind.(AllocaVal); ok {
		return av.Offset, av.placed
	}
	return 0, false
}

// IsAssignableAnyReg reports whether v may be placed in any register —
// true for Undef values and for locals with an AnyReg-constrained
// location not yet concretely assigned.
func (v *Value) IsAssignableAnyReg() bool {
	if _, ok := v.Kind.(Undef); ok {
		return true
	}
	loc := v.Location()
	return loc != nil && loc.Where == AnyReg
}

// Hash combines the kind tag, the literal/identifier payload, and for
// ABI-origin locals the location, into a value usable as a dedup key for
// maps that key on semantic identity rather than pointer identity.
func (v *Value) Hash() string {
	switch k := v.Kind.(type) {
	case Literal:
		return fmt.Sprintf("lit:%d", k.I32)
	case GlobalRef:
		return "global:" + k.Name
	case LabelVal:
		return fmt.Sprintf("label:%p", k.Block)
	case Undef:
		return "undef"
	case AllocaVal:
		return "alloca:" + k.Slot
	case LocalVal:
		h := "local:" + k.Name
		if v.ABI && k.Loc != nil {
			h += fmt.Sprintf(":%d:%d:%d", k.Loc.Where, k.Loc.RegID, k.Loc.Offset)
		}
		return h
	}
	return "?"
}
