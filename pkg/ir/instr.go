package ir

import "github.com/bpetersen/ssac/pkg/types"

// BinOp enumerates the Op(op) arithmetic/bitwise operators. Signed and
// unsigned div/mod are kept distinct, as are arithmetic and logical
// shift-right, since the x86 emitter needs the distinction to pick idiv
// vs div and sar vs shr.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpSDiv
	OpSMod
	OpUDiv
	OpUMod
	OpAnd
	OpOr
	OpXor
	OpShl
	OpAShr // arithmetic (signed) shift right
	OpLShr // logical (unsigned) shift right
)

var binOpNames = [...]string{
	"add", "sub", "mul", "sdiv", "smod", "udiv", "umod",
	"and", "or", "xor", "shl", "sar", "shr",
}

func (o BinOp) String() string {
	if int(o) < len(binOpNames) {
		return binOpNames[o]
	}
	return "?"
}

// IsShift reports whether o is one of the shift operators, which are
// exempt from the "operands must match type" rule.
func (o BinOp) IsShift() bool {
	return o == OpShl || o == OpAShr || o == OpLShr
}

// IsDivMod reports whether o needs the dividend sign/zero-extended into
// edx:eax / rdx:rax before idiv/div, per the x86 lowering table.
func (o BinOp) IsDivMod() bool {
	return o == OpSDiv || o == OpSMod || o == OpUDiv || o == OpUMod
}

// CmpOp enumerates the Cmp(cmp) comparison operators.
type CmpOp int

const (
	CmpEq CmpOp = iota
	CmpNe
	CmpGt
	CmpGe
	CmpLt
	CmpLe
)

var cmpOpNames = [...]string{"eq", "ne", "gt", "ge", "lt", "le"}

func (c CmpOp) String() string {
	if int(c) < len(cmpOpNames) {
		return cmpOpNames[c]
	}
	return "?"
}

// Negate returns the logical negation of c.
func (c CmpOp) Negate() CmpOp {
	switch c {
	case CmpEq:
		return CmpNe
	case CmpNe:
		return CmpEq
	case CmpGt:
		return CmpLe
	case CmpGe:
		return CmpLt
	case CmpLt:
		return CmpGe
	case CmpLe:
		return CmpGt
	}
	return c
}

// InstrBase holds the fields every instruction variant carries: whether a
// pass (rather than the parser) synthesized it, and a transient flag slot
// used by worklist-style passes (to_dag, isel) for bookkeeping.
type InstrBase struct {
	CompilerGenerated bool
	Flag              int
}

// Base returns the instruction's shared bookkeeping fields. Promoted
// automatically by every variant embedding InstrBase.
func (b *InstrBase) Base() *InstrBase { return b }

// Instruction is the common interface for every instruction variant.
type Instruction interface {
	implInstruction()
	Base() *InstrBase
	// Operands returns the values this instruction reads, for liveness
	// and value-lifetime scanning.
	Operands() []*Value
	// Result returns the value this instruction defines, or nil.
	Result() *Value
}

// Load: dest = *ptr
type Load struct {
	InstrBase
	Ptr    *Value
	Dest   *Value
}

// Store: *ptr = val
type Store struct {
	InstrBase
	Val *Value
	Ptr *Value
}

// Alloca: dest = stack slot of type Ty
type Alloca struct {
	InstrBase
	Ty   *types.Type
	Dest *Value
}

// Elem: dest = &base[index] (array) or &base.index (struct, literal index)
type Elem struct {
	InstrBase
	Base  *Value
	Index *Value
	Dest  *Value
}

// Ptradd: dest = ptr + int
type Ptradd struct {
	InstrBase
	Ptr  *Value
	Int  *Value
	Dest *Value
}

// Ptrsub: dest = ptr - int, or ptr - ptr (size)
type Ptrsub struct {
	InstrBase
	Lhs  *Value
	Rhs  *Value
	Dest *Value
}

// Conversion tags which scalar conversion an instruction performs.
type Conversion int

const (
	ConvZext Conversion = iota
	ConvSext
	ConvTrunc
	ConvInt2Ptr
	ConvPtr2Int
	ConvPtrcast
)

// Convert covers Zext/Sext/Trunc/Int2Ptr/Ptr2Int/Ptrcast, which all share
// the same shape: one source value, one destination type/value.
type Convert struct {
	InstrBase
	Kind Conversion
	Src  *Value
	Dest *Value
}

// Op: dest = lhs OP rhs
type Op struct {
	InstrBase
	Op   BinOp
	Lhs  *Value
	Rhs  *Value
	Dest *Value
}

// Cmp: dest = lhs CMP rhs (dest has type i1)
type Cmp struct {
	InstrBase
	Cmp  CmpOp
	Lhs  *Value
	Rhs  *Value
	Dest *Value
}

// Copy: dest = src
type Copy struct {
	InstrBase
	Src  *Value
	Dest *Value
}

// Call: dest = callee(args...); dest is nil for void calls.
type Call struct {
	InstrBase
	Callee *Value
	Args   []*Value
	Dest   *Value
}

// Ret is a terminator returning Val (nil for a void function).
type Ret struct {
	InstrBase
	Val *Value
}

// Jmp is an unconditional terminator to Target.
type Jmp struct {
	InstrBase
	Target *Block
}

// Br is a conditional terminator.
type Br struct {
	InstrBase
	Cond   *Value
	TBlock *Block
	FBlock *Block
}

// JmpComputed is a terminator jumping to a label-valued pointer.
type JmpComputed struct {
	InstrBase
	Target *Value
}

// Label records that Target's address has been taken (for the
// computed-goto over-approximation allows).
type Label struct {
	InstrBase
	Target *Block
}

// Asm emits an opaque assembly string verbatim.
type Asm struct {
	InstrBase
	Text string
}

// Memcpy copies Size(DstTy) bytes from Src to Dst; both must be pointers
// of identical type.
type Memcpy struct {
	InstrBase
	Dst *Value
	Src *Value
}

func (*Load) implInstruction()        {}
func (*Store) implInstruction()       {}
func (*Alloca) implInstruction()      {}
func (*Elem) implInstruction()        {}
func (*Ptradd) implInstruction()      {}
func (*Ptrsub) implInstruction()      {}
func (*Convert) implInstruction()     {}
func (*Op) implInstruction()          {}
func (*Cmp) implInstruction()         {}
func (*Copy) implInstruction()        {}
func (*Call) implInstruction()        {}
func (*Ret) implInstruction()         {}
func (*Jmp) implInstruction()         {}
func (*Br) implInstruction()          {}
func (*JmpComputed) implInstruction() {}
func (*Label) implInstruction()       {}
func (*Asm) implInstruction()         {}
func (*Memcpy) implInstruction()      {}

func (i *Load) Operands() []*Value   { return []*Value{i.Ptr} }
func (i *Store) Operands() []*Value  { return []*Value{i.Val, i.Ptr} }
func (i *Alloca) Operands() []*Value { return nil }
func (i *Elem) Operands() []*Value   { return []*Value{i.Base, i.Index} }
func (i *Ptradd) Operands() []*Value { return []*Value{i.Ptr, i.Int} }
func (i *Ptrsub) Operands() []*Value { return []*Value{i.Lhs, i.Rhs} }
func (i *Convert) Operands() []*Value { return []*Value{i.Src} }
func (i *Op) Operands() []*Value     { return []*Value{i.Lhs, i.Rhs} }
func (i *Cmp) Operands() []*Value    { return []*Value{i.Lhs, i.Rhs} }
func (i *Copy) Operands() []*Value   { return []*Value{i.Src} }
func (i *Call) Operands() []*Value {
	ops := make([]*Value, 0, len(i.Args)+1)
	ops = append(ops, i.Callee)
	return append(ops, i.Args...)
}
func (i *Ret) Operands() []*Value {
	if i.Val == nil {
		return nil
	}
	return []*Value{i.Val}
}
func (i *Jmp) Operands() []*Value    { return nil }
func (i *Br) Operands() []*Value     { return []*Value{i.Cond} }
func (i *JmpComputed) Operands() []*Value { return []*Value{i.Target} }
func (i *Label) Operands() []*Value  { return nil }
func (i *Asm) Operands() []*Value    { return nil }
func (i *Memcpy) Operands() []*Value { return []*Value{i.Dst, i.Src} }

func (i *Load) Result() *Value        { return i.Dest }
func (i *Store) Result() *Value       { return nil }
func (i *Alloca) Result() *Value      { return i.Dest }
func (i *Elem) Result() *Value        { return i.Dest }
func (i *Ptradd) Result() *Value      { return i.Dest }
func (i *Ptrsub) Result() *Value      { return i.Dest }
func (i *Convert) Result() *Value     { return i.Dest }
func (i *Op) Result() *Value          { return i.Dest }
func (i *Cmp) Result() *Value         { return i.Dest }
func (i *Copy) Result() *Value        { return i.Dest }
func (i *Call) Result() *Value        { return i.Dest }
func (i *Ret) Result() *Value         { return nil }
func (i *Jmp) Result() *Value         { return nil }
func (i *Br) Result() *Value          { return nil }
func (i *JmpComputed) Result() *Value { return nil }
func (i *Label) Result() *Value       { return nil }
func (i *Asm) Result() *Value         { return nil }
func (i *Memcpy) Result() *Value      { return nil }

// IsTerminator reports whether inst ends a block.
func IsTerminator(inst Instruction) bool {
	switch inst.(type) {
	case *Ret, *Jmp, *Br, *JmpComputed:
		return true
	}
	return false
}

// retainOperands bumps the refcount of every value an instruction
// captures. Called once, right after construction.
func retainOperands(inst Instruction) {
	for _, v := range inst.Operands() {
		if v != nil {
			v.Retain()
		}
	}
	if r := inst.Result(); r != nil {
		r.Retain()
	}
}

// ReleaseInstruction releases every value an instruction captured. Called
// when the instruction is dropped from a block (e.g. block_split leaving
// it behind, or a pass replacing it).
func ReleaseInstruction(inst Instruction) {
	for _, v := range inst.Operands() {
		if v != nil {
			v.Release()
		}
	}
	if r := inst.Result(); r != nil {
		r.Release()
	}
}
