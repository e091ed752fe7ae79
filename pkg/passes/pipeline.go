// Package passes implements the fixed lowering pipeline:
// expand_builtins -> to_dag -> abi -> isel -> regalloc. Each pass exposes
// Run(unit); within a pass, every function's reachable blocks are visited
// in DFS order from the entry block.
package passes

import (
	"fmt"

	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
)

// Pass is one stage of the lowering pipeline.
type Pass interface {
	Name() string
	Run(unit *ir.Unit, tgt *target.Spec) error
}

// Pipeline runs a fixed, ordered list of passes.
type Pipeline struct {
	Passes []Pass

	// ShowIntermediates mirrors the --show-intermediates CLI flag
	//: when set, each pass's Run dumps function IR to Dump
	// after running.
	ShowIntermediates bool
	Dump              func(stage string, unit *ir.Unit)
}

// Default returns the pipeline in its mandated fixed order.
func Default(abi target.Abi) *Pipeline {
	return &Pipeline{
		Passes: []Pass{
			&ExpandBuiltins{},
			&ToDAG{},
			&ABI{Conv: abi},
			&ISel{},
			&RegAlloc{},
		},
	}
}

// Run executes every pass in order, stopping at the first error: a pass
// failure is an internal invariant violation and is always fatal.
func (pl *Pipeline) Run(unit *ir.Unit, tgt *target.Spec) error {
	for _, pass := range pl.Passes {
		if err := pass.Run(unit, tgt); err != nil {
			return fmt.Errorf("pass %s: %w", pass.Name(), err)
		}
		if pl.ShowIntermediates && pl.Dump != nil {
			pl.Dump(pass.Name(), unit)
		}
	}
	return nil
}

// eachReachableBlock visits every block in fn reachable from the entry,
// in DFS order.
func eachReachableBlock(fn *ir.Function, visit func(*ir.Block)) {
	for _, b := range fn.ReachableBlocks() {
		visit(b)
	}
}
