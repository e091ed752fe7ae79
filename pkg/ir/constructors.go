package ir

import "github.com/bpetersen/ssac/pkg/types"

// The New* constructors are the only supported way to build an
// Instruction: each one retains every value it captures, so refcounts stay
// consistent with the "at most one owner frees each value"
// invariant without requiring every pass to remember to call Retain
// itself.

func finish[I Instruction](inst I) I {
	retainOperands(inst)
	return inst
}

func NewLoad(ptr, dest *Value) *Load {
	return finish(&Load{Ptr: ptr, Dest: dest})
}

func NewStore(val, ptr *Value) *Store {
	return finish(&Store{Val: val, Ptr: ptr})
}

func NewAlloca(ty *types.Type, dest *Value) *Alloca {
	return finish(&Alloca{Ty: ty, Dest: dest})
}

func NewElem(base, index, dest *Value) *Elem {
	return finish(&Elem{Base: base, Index: index, Dest: dest})
}

func NewPtradd(ptr, intVal, dest *Value) *Ptradd {
	return finish(&Ptradd{Ptr: ptr, Int: intVal, Dest: dest})
}

func NewPtrsub(lhs, rhs, dest *Value) *Ptrsub {
	return finish(&Ptrsub{Lhs: lhs, Rhs: rhs, Dest: dest})
}

func NewConvert(kind Conversion, src, dest *Value) *Convert {
	return finish(&Convert{Kind: kind, Src: src, Dest: dest})
}

func NewOp(op BinOp, lhs, rhs, dest *Value) *Op {
	return finish(&Op{Op: op, Lhs: lhs, Rhs: rhs, Dest: dest})
}

func NewCmp(cmp CmpOp, lhs, rhs, dest *Value) *Cmp {
	return finish(&Cmp{Cmp: cmp, Lhs: lhs, Rhs: rhs, Dest: dest})
}

func NewCopy(src, dest *Value) *Copy {
	return finish(&Copy{Src: src, Dest: dest})
}

func NewCall(callee *Value, args []*Value, dest *Value) *Call {
	return finish(&Call{Callee: callee, Args: args, Dest: dest})
}

func NewRet(val *Value) *Ret {
	return finish(&Ret{Val: val})
}

func NewJmp(target *Block) *Jmp {
	return finish(&Jmp{Target: target})
}

func NewBr(cond *Value, tblk, fblk *Block) *Br {
	return finish(&Br{Cond: cond, TBlock: tblk, FBlock: fblk})
}

func NewJmpComputed(target *Value) *JmpComputed {
	return finish(&JmpComputed{Target: target})
}

func NewLabel(target *Block) *Label {
	return finish(&Label{Target: target})
}

func NewAsm(text string) *Asm {
	return finish(&Asm{Text: text})
}

func NewMemcpy(dst, src *Value) *Memcpy {
	return finish(&Memcpy{Dst: dst, Src: src})
}
