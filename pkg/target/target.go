// Package target describes the per-triple assembly conventions the x86
// emitter needs: label prefixes, section names, weak directives, name
// mangling, and alignment-directive encoding. The descriptor table lives
// in an embedded targets.yaml, parsed with gopkg.in/yaml.v3.
package target

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed targets.yaml
var targetsYAML []byte

// Spec is one target triple's assembly conventions.
type Spec struct {
	Sys                     string `yaml:"sys"`
	Arch                    string `yaml:"arch"`
	PrivatePrefix           string `yaml:"private_prefix"`
	RodataSection           string `yaml:"rodata_section"`
	WeakDirective           string `yaml:"weak_directive"`
	WeakDefinitionDirective string `yaml:"weak_definition_directive"`
	LeadingUnderscore       bool   `yaml:"leading_underscore"`
	AlignLog2               bool   `yaml:"align_log2"`
	PointerSize             uint64 `yaml:"pointer_size"`
	PointerAlign            uint64 `yaml:"pointer_align"`

	// PICActive is not part of the embedded table; it is set from the
	// --pic CLI flag after Parse resolves the base descriptor.
	PICActive bool
}

var (
	loadOnce sync.Once
	table    map[string]Spec
	loadErr  error
)

func load() {
	table = make(map[string]Spec)
	loadErr = yaml.Unmarshal(targetsYAML, &table)
}

// Parse resolves a "<sys>-<arch>" triple string into a Spec.
func Parse(triple string) (*Spec, error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return nil, fmt.Errorf("target: loading descriptor table: %w", loadErr)
	}
	spec, ok := table[triple]
	if !ok {
		sys, arch, splitOK := strings.Cut(triple, "-")
		if !splitOK {
			return nil, fmt.Errorf("target: invalid triple %q, want <sys>-<arch>", triple)
		}
		return nil, fmt.Errorf("target: unsupported triple %q (sys=%q arch=%q)", triple, sys, arch)
	}
	out := spec
	return &out, nil
}

// AlignDirective renders the operand of a .align directive for n bytes of
// alignment, honoring whether this target wants a raw byte count or
// log2(n).
func (s *Spec) AlignDirective(n uint64) uint64 {
	if !s.AlignLog2 || n <= 1 {
		if s.AlignLog2 && n <= 1 {
			return 0
		}
		return n
	}
	log2 := uint64(0)
	for v := n; v > 1; v >>= 1 {
		log2++
	}
	return log2
}

// Mangle applies the target's symbol-mangling rule (a leading underscore
// on Darwin) to an exported symbol name.
func (s *Spec) Mangle(name string) string {
	if s.LeadingUnderscore {
		return "_" + name
	}
	return name
}
