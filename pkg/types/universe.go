package types

import (
	"fmt"

	"github.com/bpetersen/ssac/pkg/arena"
	"github.com/bpetersen/ssac/pkg/sizealign"
)

// PointerInfo carries the target-dependent facts the universe needs but
// does not itself own: pointer size and alignment.
type PointerInfo struct {
	Size  uint64
	Align uint64
}

// Universe is the per-unit pool of uniqued types. Two syntactically equal
// constructions (modulo aliases) return the same *Type.
type Universe struct {
	arena   *arena.Arena[Type]
	byKey   map[string]*Type
	aliases map[string]*Type // name -> most recently added alias handle
	ptr     PointerInfo
}

// NewUniverse creates an empty type universe for one translation unit.
func NewUniverse(ptr PointerInfo) *Universe {
	return &Universe{
		arena:   arena.New[Type](),
		byKey:   make(map[string]*Type),
		aliases: make(map[string]*Type),
		ptr:     ptr,
	}
}

func (u *Universe) intern(k kind) *Type {
	key := k.key()
	if t, ok := u.byKey[key]; ok {
		return t
	}
	t := u.arena.Alloc(Type{kind: k})
	u.byKey[key] = t
	return t
}

// Void returns the canonical void type.
func (u *Universe) Void() *Type { return u.intern(Void{}) }

// Primitive returns the canonical handle for primitive kind p.
func (u *Universe) Primitive(p Primitive) *Type { return u.intern(PrimitiveK{P: p}) }

// PtrTo returns the canonical pointer-to-pointee type.
func (u *Universe) PtrTo(pointee *Type) *Type { return u.intern(Ptr{Pointee: pointee}) }

// ArrayOf returns the canonical array type, or an error if elem is a
// function type (array-of-function is rejected at construction).
func (u *Universe) ArrayOf(elem *Type, n uint64) (*Type, error) {
	if _, ok := u.Resolve(elem).kind.(Func); ok {
		return nil, fmt.Errorf("array of function type is not allowed")
	}
	return u.intern(Array{Elem: elem, N: n}), nil
}

// FuncOf returns the canonical function type, or an error if ret is an
// array type (function-returning-array is rejected).
func (u *Universe) FuncOf(ret *Type, args []*Type, variadic bool) (*Type, error) {
	if _, ok := u.Resolve(ret).kind.(Array); ok {
		return nil, fmt.Errorf("function returning array type is not allowed")
	}
	argsCopy := append([]*Type(nil), args...)
	return u.intern(Func{Ret: ret, Args: argsCopy, Variadic: variadic}), nil
}

// StructOf returns the canonical struct type for the given members in
// declaration order.
func (u *Universe) StructOf(members []*Type) *Type {
	membersCopy := append([]*Type(nil), members...)
	return u.intern(Struct{Members: membersCopy})
}

// AddAlias creates a fresh (non-uniqued) alias named name for actual, and
// registers it as the name's current resolution target.
func (u *Universe) AddAlias(name string, actual *Type) *Type {
	t := u.arena.Alloc(Type{kind: Alias{Name: name, Actual: actual}})
	u.aliases[name] = t
	return t
}

// ResolveAlias looks up the most recently added alias named name.
func (u *Universe) ResolveAlias(name string) (*Type, bool) {
	t, ok := u.aliases[name]
	return t, ok
}

// Resolve unwinds Alias wrappers until it reaches a non-alias type.
func (u *Universe) Resolve(t *Type) *Type {
	for {
		a, ok := t.kind.(Alias)
		if !ok {
			return t
		}
		t = a.Actual
	}
}

// Deref returns the pointee of t (after resolving aliases), or nil if t is
// not a pointer type.
func (u *Universe) Deref(t *Type) *Type {
	if p, ok := u.Resolve(t).kind.(Ptr); ok {
		return p.Pointee
	}
	return nil
}

// Called returns the function type pointed to by t, or nil.
func (u *Universe) Called(t *Type) *Type {
	pointee := u.Deref(t)
	if pointee == nil {
		return nil
	}
	if _, ok := u.Resolve(pointee).kind.(Func); ok {
		return pointee
	}
	return nil
}

// ArrayElem returns the element type of array type t, or nil.
func (u *Universe) ArrayElem(t *Type) *Type {
	if a, ok := u.Resolve(t).kind.(Array); ok {
		return a.Elem
	}
	return nil
}

// AsPrimitive returns the primitive kind of t and true, or (0, false).
func (u *Universe) AsPrimitive(t *Type) (Primitive, bool) {
	if p, ok := u.Resolve(t).kind.(PrimitiveK); ok {
		return p.P, true
	}
	return 0, false
}

// IsStruct reports whether t resolves to a struct type.
func (u *Universe) IsStruct(t *Type) bool {
	_, ok := u.Resolve(t).kind.(Struct)
	return ok
}

// StructMembers returns the member types of struct type t, or nil.
func (u *Universe) StructMembers(t *Type) []*Type {
	if s, ok := u.Resolve(t).kind.(Struct); ok {
		return s.Members
	}
	return nil
}

// IsPointer reports whether t resolves to a pointer type.
func (u *Universe) IsPointer(t *Type) bool {
	_, ok := u.Resolve(t).kind.(Ptr)
	return ok
}

// IsFunc reports whether t resolves to a function type.
func (u *Universe) IsFunc(t *Type) bool {
	_, ok := u.Resolve(t).kind.(Func)
	return ok
}

// FuncSig returns the resolved function-type fields, or ok=false.
func (u *Universe) FuncSig(t *Type) (ret *Type, args []*Type, variadic bool, ok bool) {
	f, isFn := u.Resolve(t).kind.(Func)
	if !isFn {
		return nil, nil, false, false
	}
	return f.Ret, f.Args, f.Variadic, true
}

// CanReturnTo reports the struct-return compatibility: true when to
// is a struct and from is a pointer to that struct, or when from == to.
func (u *Universe) CanReturnTo(from, to *Type) bool {
	if from == to {
		return true
	}
	if !u.IsStruct(u.Resolve(to)) {
		return false
	}
	pointee := u.Deref(from)
	return pointee != nil && pointee == to
}

// SizeAlign computes the structural size/alignment of t.
func (u *Universe) SizeAlign(t *Type) sizealign.SizeAlign {
	switch k := u.Resolve(t).kind.(type) {
	case Void:
		return sizealign.SizeAlign{Size: 0, Align: 1}
	case PrimitiveK:
		return k.P.SizeAlign()
	case Ptr:
		return sizealign.SizeAlign{Size: u.ptr.Size, Align: u.ptr.Align}
	case Array:
		return sizealign.Array(u.SizeAlign(k.Elem), k.N)
	case Struct:
		members := make([]sizealign.SizeAlign, len(k.Members))
		for i, m := range k.Members {
			members[i] = u.SizeAlign(m)
		}
		return sizealign.Struct(members)
	case Func:
		panic("function types have no size")
	}
	panic("unreachable type kind")
}

// String renders t for diagnostics and IR pretty-printing.
func (u *Universe) String(t *Type) string {
	switch k := t.kind.(type) {
	case Void:
		return "void"
	case PrimitiveK:
		return k.P.String()
	case Ptr:
		return u.String(k.Pointee) + "*"
	case Array:
		return fmt.Sprintf("[%s x %d]", u.String(k.Elem), k.N)
	case Func:
		s := u.String(k.Ret) + "("
		for i, a := range k.Args {
			if i > 0 {
				s += ", "
			}
			s += u.String(a)
		}
		if k.Variadic {
			if len(k.Args) > 0 {
				s += ", "
			}
			s += "..."
		}
		return s + ")"
	case Struct:
		s := "{"
		for i, m := range k.Members {
			if i > 0 {
				s += ", "
			}
			s += u.String(m)
		}
		return s + "}"
	case Alias:
		return "$" + k.Name
	}
	return "?"
}

// StructMemberOffset returns the byte offset of member idx within struct t.
func (u *Universe) StructMemberOffset(t *Type, idx int) uint64 {
	members := u.StructMembers(t)
	sas := make([]sizealign.SizeAlign, len(members))
	for i, m := range members {
		sas[i] = u.SizeAlign(m)
	}
	return sizealign.MemberOffset(sas, idx)
}
