package ir

import "github.com/bpetersen/ssac/pkg/types"

// Initializer tags the variant of a global variable's compile-time
// initial value.
type Initializer interface {
	isInitializer()
}

// IntInit is a scalar integer initializer, stored widened to 64 bits; the
// emitter truncates to the variable's declared size.
type IntInit struct{ Value uint64 }

// StrInit is a byte-string initializer (string literals, including their
// trailing NUL where the source wrote one explicitly).
type StrInit struct{ Bytes []byte }

// ArrayInit is an element-wise array initializer.
type ArrayInit struct{ Elems []Initializer }

// StructInit is a member-wise struct initializer.
type StructInit struct{ Elems []Initializer }

// PtrTarget is either a bare integer (an absolute/null pointer constant)
// or a reference to another global, optionally offset.
type PtrTarget struct {
	IsLabel bool
	Int     uint64 // valid when !IsLabel
	Label   string // valid when IsLabel
	Offset  int64
	AnyPtr  bool // the referenced global's exact type is immaterial (void* cast)
}

// PtrInit is a pointer-valued initializer.
type PtrInit struct{ Target PtrTarget }

// AliasInit lets a global's initializer be written against a different
// (but layout-compatible) type than the global's declared type.
type AliasInit struct {
	As    *types.Type
	Inner Initializer
}

func (IntInit) isInitializer()    {}
func (StrInit) isInitializer()    {}
func (ArrayInit) isInitializer()  {}
func (StructInit) isInitializer() {}
func (PtrInit) isInitializer()    {}
func (AliasInit) isInitializer()  {}
