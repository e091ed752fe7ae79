package x86

import (
	"fmt"

	"github.com/bpetersen/ssac/pkg/ir"
)

// labelAssigner maps a function's blocks to unique assembly labels.
// Block labels are only unique within their own function (the parser
// never qualifies them), so every label here is additionally scoped by
// the function's own mangled name to avoid collisions between, say, two
// functions that both have a block named "loop".
type labelAssigner struct {
	prefix string
	fnName string
	labels map[*ir.Block]string
}

func newLabelAssigner(fn *ir.Function, prefix string) *labelAssigner {
	return &labelAssigner{prefix: prefix, fnName: sanitize(fn.Name), labels: make(map[*ir.Block]string)}
}

// For returns the assembly label for b, computing and caching it on
// first use.
func (a *labelAssigner) For(b *ir.Block) string {
	if lbl, ok := a.labels[b]; ok {
		return lbl
	}
	lbl := fmt.Sprintf("%s%s_%s", a.prefix, a.fnName, sanitize(b.Label()))
	a.labels[b] = lbl
	return lbl
}
