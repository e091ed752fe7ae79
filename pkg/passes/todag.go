package passes

import (
	"github.com/bpetersen/ssac/pkg/ir"
	"github.com/bpetersen/ssac/pkg/target"
)

// ToDAG builds, for every block, the instruction dependency DAG: nodes
// are instructions, edges are data dependencies (operand producer chains
// within the block) plus a single memory-ordering chain serializing
// loads/stores/calls/memcpy.
type ToDAG struct{}

func (*ToDAG) Name() string { return "to_dag" }

func (p *ToDAG) Run(unit *ir.Unit, tgt *target.Spec) error {
	for _, fn := range unit.Functions() {
		eachReachableBlock(fn, func(b *ir.Block) {
			b.SetDAG(buildBlockDAG(b))
		})
	}
	return nil
}

func buildBlockDAG(b *ir.Block) *ir.DAG {
	nodes := make([]*ir.DAGNode, 0, len(b.Isns()))
	producer := make(map[*ir.Value]*ir.DAGNode)
	var lastMem *ir.DAGNode

	for _, inst := range b.Isns() {
		n := &ir.DAGNode{Inst: inst}
		for _, op := range inst.Operands() {
			if dep, ok := producer[op]; ok {
				n.DataDeps = append(n.DataDeps, dep)
			}
		}
		if ir.HasMemoryEffect(inst) {
			n.MemDep = lastMem
			lastMem = n
		}
		if r := inst.Result(); r != nil {
			producer[r] = n
		}
		nodes = append(nodes, n)
	}
	return &ir.DAG{Nodes: nodes}
}
