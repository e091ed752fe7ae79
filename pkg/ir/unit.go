package ir

import (
	"fmt"

	"github.com/bpetersen/ssac/pkg/arena"
	"github.com/bpetersen/ssac/pkg/types"
)

// Unit is a fully parsed translation unit: the type universe, the
// instruction/block arenas backing every function in the unit, and an
// insertion-ordered, name-indexed collection of globals. Later
// declarations of the same name win (with a recorded sema error), the
// same resolution the parser already applies to forward-declared
// functions and tentative variable definitions.
type Unit struct {
	Types *types.Universe

	blocks *arena.Arena[Block]
	isns   *arena.Arena[Instruction]

	order []string
	byName map[string]*Global

	privatePrefix string
	nextPrivate   int

	Errors []error
}

// NewUnit creates an empty unit. privatePrefix is the target's
// compiler-private label prefix (".L" on Linux, "L" on Darwin).
func NewUnit(universe *types.Universe, privatePrefix string) *Unit {
	return &Unit{
		Types:         universe,
		blocks:        arena.New[Block](),
		isns:          arena.New[Instruction](),
		byName:        make(map[string]*Global),
		privatePrefix: privatePrefix,
	}
}

// BlockArena returns the unit-wide block arena new functions should be
// built against.
func (u *Unit) BlockArena() *arena.Arena[Block] { return u.blocks }

// NewPrivateLabel allocates a fresh unit-scoped private label (used for
// string-literal pools and other synthesized globals with no source
// name).
func (u *Unit) NewPrivateLabel() string {
	u.nextPrivate++
	return fmt.Sprintf("%sC%d", u.privatePrefix, u.nextPrivate)
}

// PrivatePrefix returns the target's private-label prefix.
func (u *Unit) PrivatePrefix() string { return u.privatePrefix }

// Declare inserts or replaces the global named g.Name. If a global with
// that name already exists, it is replaced in place (insertion order
// preserved) and a sema error describing the redefinition is appended to
// Errors — callers may choose to treat this as fatal or to continue with
// the new definition winning, matching the parser's sema-error-and-
// continue recovery style.
func (u *Unit) Declare(g *Global) {
	if _, exists := u.byName[g.Name]; !exists {
		u.order = append(u.order, g.Name)
	} else {
		u.Errors = append(u.Errors, fmt.Errorf("redefinition of %q", g.Name))
	}
	u.byName[g.Name] = g
}

// Lookup returns the global named name, or nil.
func (u *Unit) Lookup(name string) *Global { return u.byName[name] }

// Globals returns every global in declaration order.
func (u *Unit) Globals() []*Global {
	out := make([]*Global, 0, len(u.order))
	for _, name := range u.order {
		out = append(out, u.byName[name])
	}
	return out
}

// Functions returns every FuncGlobal's Function, in declaration order,
// skipping pure declarations (no body).
func (u *Unit) Functions() []*Function {
	var out []*Function
	for _, g := range u.Globals() {
		if fn, ok := g.AsFunc(); ok && fn != nil && len(fn.Blocks()) > 0 {
			out = append(out, fn)
		}
	}
	return out
}
