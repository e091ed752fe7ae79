// Package x86 prints a lowered, register-allocated Unit as x86-64 AT&T
// syntax assembly. There is no binary encoding step: emission is
// printing, driven entirely by an explicit target.Spec rather than the
// host's own GOOS/GOARCH.
package x86

import (
	"fmt"
	"io"
	"strings"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
	"github.com/bpetersen/ssac/pkg/types"
)

// Printer emits one Unit's worth of assembly to w for the given target.
type Printer struct {
	w       io.Writer
	tgt     *target.Spec
	unit    *ir.Unit
	mangler *Mangler
}

// NewPrinter creates a Printer for unit, targeting tgt.
func NewPrinter(w io.Writer, unit *ir.Unit, tgt *target.Spec) *Printer {
	return &Printer{w: w, tgt: tgt, unit: unit, mangler: NewMangler(tgt)}
}

func (p *Printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

// PrintUnit emits every global: constant variables to the target's rodata
// section first, then other variables to .data, then functions to .text,
// each group in declaration order.
func (p *Printer) PrintUnit() {
	var rodata, data []*ir.Global
	var funcs []*ir.Global

	for _, g := range p.unit.Globals() {
		if _, ok := g.AsFunc(); ok {
			funcs = append(funcs, g)
			continue
		}
		vg, ok := g.AsVar()
		if !ok {
			continue // type-alias globals carry no storage to emit
		}
		switch {
		case vg.Init == nil:
			data = append(data, g) // tentative definition, emitted as .space
		case g.Linkage.Constant():
			rodata = append(rodata, g)
		default:
			data = append(data, g)
		}
	}

	if len(rodata) > 0 {
		p.printf("\t.section\t%s\n", p.tgt.RodataSection)
		for _, g := range rodata {
			p.printVarGlobal(g)
		}
	}
	if len(data) > 0 {
		p.printf("\t.data\n")
		for _, g := range data {
			p.printVarGlobal(g)
		}
	}

	p.printf("\t.text\n")
	for _, g := range funcs {
		fn, _ := g.AsFunc()
		if len(fn.Blocks()) == 0 {
			continue // external declaration, nothing to emit
		}
		p.printFunction(g, fn)
	}
}

func (p *Printer) symbolName(g *ir.Global) string {
	name := g.Name
	if !g.Linkage.Internal() {
		name = p.tgt.Mangle(p.mangler.Mangle(name))
	} else {
		name = p.mangler.Mangle(name)
	}
	return name
}

func (p *Printer) printFunction(g *ir.Global, fn *ir.Function) {
	name := p.symbolName(g)
	fn.Mangled = name
	if !g.Linkage.Internal() {
		p.printf("\t.globl\t%s\n", name)
	}
	if g.Linkage.Weak() {
		p.printf("\t%s\t%s\n", p.tgt.WeakDirective, name)
	}
	p.printf("%s:\n", name)

	frame := newFrame(p.unit, fn)
	p.printPrologue(frame)

	labels := newLabelAssigner(fn, p.tgt.PrivatePrefix)
	entry := fn.EntryBlock(false)

	for _, b := range fn.ReachableBlocks() {
		if b != entry {
			p.printf("%s:\n", labels.For(b))
		}
		for _, inst := range b.Isns() {
			p.printInstr(inst, labels, frame)
		}
	}
}

func (p *Printer) printPrologue(f *frame) {
	p.printf("\tpush\t%%rbp\n")
	p.printf("\tmov\t%%rsp, %%rbp\n")
	if f.totalSize() > 0 {
		p.printf("\tsub\t$%d, %%rsp\n", f.totalSize())
	}
}

func (p *Printer) printVarGlobal(g *ir.Global) {
	name := p.symbolName(g)
	vg, _ := g.AsVar()
	sa := p.unit.Types.SizeAlign(vg.Type)

	if !g.Linkage.Internal() {
		p.printf("\t.globl\t%s\n", name)
	}
	if g.Linkage.Weak() {
		weak := p.tgt.WeakDefinitionDirective
		if weak == "" {
			weak = p.tgt.WeakDirective
		}
		p.printf("\t%s\t%s\n", weak, name)
	}
	p.printf("\t.align\t%d\n", p.tgt.AlignDirective(sa.Align))
	p.printf("%s:\n", name)
	if vg.Init == nil {
		p.printf("\t.space\t%d\n", sa.Size)
		return
	}
	p.printInit(vg.Init, vg.Type)
}

func (p *Printer) printInit(init ir.Initializer, ty *types.Type) {
	switch k := init.(type) {
	case ir.IntInit:
		p.printIntBySize(k.Value, p.unit.Types.SizeAlign(ty).Size)
	case ir.StrInit:
		p.printf("\t.ascii\t\"%s\"\n", escapeAscii(k.Bytes))
	case ir.PtrInit:
		if k.Target.IsLabel {
			sign := "+"
			off := k.Target.Offset
			if off < 0 {
				sign = "-"
				off = -off
			}
			if off == 0 {
				p.printf("\t.quad\t%s\n", p.mangler.Mangle(k.Target.Label))
			} else {
				p.printf("\t.quad\t%s %s %d\n", p.mangler.Mangle(k.Target.Label), sign, off)
			}
		} else {
			p.printf("\t.quad\t%d\n", k.Target.Int)
		}
	case ir.ArrayInit:
		elem := p.unit.Types.ArrayElem(ty)
		for _, e := range k.Elems {
			p.printInit(e, elem)
		}
	case ir.StructInit:
		members := p.unit.Types.StructMembers(ty)
		offset := uint64(0)
		for i, e := range k.Elems {
			memberOff := p.unit.Types.StructMemberOffset(ty, i)
			if memberOff > offset {
				p.printf("\t.space\t%d\n", memberOff-offset)
			}
			p.printInit(e, members[i])
			offset = memberOff + p.unit.Types.SizeAlign(members[i]).Size
		}
		total := p.unit.Types.SizeAlign(ty).Size
		if total > offset {
			p.printf("\t.space\t%d\n", total-offset)
		}
	case ir.AliasInit:
		p.printInit(k.Inner, k.As)
		asSize := p.unit.Types.SizeAlign(k.As).Size
		targetSize := p.unit.Types.SizeAlign(ty).Size
		if targetSize > asSize {
			p.printf("\t.space\t%d\n", targetSize-asSize)
		}
	}
}

func (p *Printer) printIntBySize(v uint64, size uint64) {
	switch size {
	case 1:
		p.printf("\t.byte\t0x%x\n", v)
	case 2:
		p.printf("\t.word\t0x%x\n", v)
	case 4:
		p.printf("\t.long\t0x%x\n", v)
	default:
		p.printf("\t.quad\t0x%x\n", v)
	}
}

func escapeAscii(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, "\\%03o", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
