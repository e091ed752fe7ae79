package x86

import (
	"strings"

	"github.com/bpetersen/ssac/pkg/target"
)

// Mangler turns a unit-scoped name (global, block label, or private
// counter) into an assembler-safe symbol, caching each translation so a
// name maps to exactly one symbol for the lifetime of a printer run.
type Mangler struct {
	tgt   *target.Spec
	cache map[string]string
}

// NewMangler creates a Mangler for the given target.
func NewMangler(tgt *target.Spec) *Mangler {
	return &Mangler{tgt: tgt, cache: make(map[string]string)}
}

// Mangle returns the assembler symbol for name, replacing every character
// other than ASCII letters, digits, '_' and '.' with '_'.
func (m *Mangler) Mangle(name string) string {
	if sym, ok := m.cache[name]; ok {
		return sym
	}
	sym := sanitize(name)
	m.cache[name] = sym
	return sym
}

func sanitize(name string) string {
	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
