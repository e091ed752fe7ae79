package ir

import "github.com/bpetersen/ssac/pkg/types"

// GlobalLinkage is a bitmask of the linkage/visibility flags attached to a
// top-level global: whether it is internal to the unit,
// read-only, or weakly defined.
type GlobalLinkage uint8

const (
	LinkInternal GlobalLinkage = 1 << 0
	LinkConstant GlobalLinkage = 1 << 1
	LinkWeak     GlobalLinkage = 1 << 2
)

func (l GlobalLinkage) Internal() bool { return l&LinkInternal != 0 }
func (l GlobalLinkage) Constant() bool { return l&LinkConstant != 0 }
func (l GlobalLinkage) Weak() bool     { return l&LinkWeak != 0 }

// GlobalKind tags the variant of a Global.
type GlobalKind interface {
	isGlobalKind()
}

// TypeAliasGlobal associates a $Name with a type — a unit-level type
// alias declaration, not a value.
type TypeAliasGlobal struct {
	Name string
	Type *types.Type
}

// VarGlobal is a named, typed storage location with an optional
// initializer. A nil Init means a tentative (BSS) definition.
type VarGlobal struct {
	Type *types.Type
	Init Initializer
}

// FuncGlobal is a function definition or declaration. For an external
// declaration Fn has no blocks.
type FuncGlobal struct {
	Fn *Function
}

func (TypeAliasGlobal) isGlobalKind() {}
func (VarGlobal) isGlobalKind()       {}
func (FuncGlobal) isGlobalKind()      {}

// Global is one top-level entry in a Unit: a name, a linkage set, and a
// kind-tagged payload.
type Global struct {
	Name    string
	Linkage GlobalLinkage
	Kind    GlobalKind
}

// NewTypeAliasGlobal creates a $Name type-alias global.
func NewTypeAliasGlobal(name string, t *types.Type) *Global {
	return &Global{Name: name, Kind: TypeAliasGlobal{Name: name, Type: t}}
}

// NewVarGlobal creates a variable global with an optional initializer.
func NewVarGlobal(name string, t *types.Type, init Initializer, linkage GlobalLinkage) *Global {
	return &Global{Name: name, Linkage: linkage, Kind: VarGlobal{Type: t, Init: init}}
}

// NewFuncGlobal creates a function global wrapping fn.
func NewFuncGlobal(fn *Function, linkage GlobalLinkage) *Global {
	return &Global{Name: fn.Name, Linkage: linkage, Kind: FuncGlobal{Fn: fn}}
}

// AsFunc returns the wrapped Function and true if g is a FuncGlobal.
func (g *Global) AsFunc() (*Function, bool) {
	fg, ok := g.Kind.(FuncGlobal)
	if !ok {
		return nil, false
	}
	return fg.Fn, true
}

// AsVar returns the wrapped VarGlobal and true if g is a VarGlobal.
func (g *Global) AsVar() (VarGlobal, bool) {
	vg, ok := g.Kind.(VarGlobal)
	return vg, ok
}
