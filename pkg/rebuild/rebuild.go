// Package rebuild implements the rebuilt, structurally hashed AIG that
// the sweep loop incrementally populates and the CNF builder variablizes.
// It is a distinct type from pkg/aig's original graph (design note
// "Rebuilt AIG vs original AIG dual addressing"): the original node
// stores its rebuilt literal, this node stores its SAT variable.
package rebuild

import "github.com/gitrdm/satsweep/pkg/aig"

// Const0Index is this graph's own constant-zero sentinel index, always 0.
const Const0Index = 0

// NoVar is the sentinel for "no SAT variable assigned yet".
const NoVar int32 = -1

// Node is one entry in the rebuilt AIG.
type Node struct {
	IsCI bool

	// Fanin0, Fanin1 are fanin literals into this rebuilt graph, for AND
	// nodes. Zero value for CI and Const0 nodes.
	Fanin0, Fanin1 aig.Lit

	// Mark0 flags a node recognized as a two-level MUX pattern.
	Mark0 bool

	// SatVar is this node's CNF variable, or NoVar if not yet
	// variablized. Cleared back to NoVar after every SAT call.
	SatVar int32
}

// Graph is the rebuilt AIG: structurally hashed, so And(a, b) returns an
// existing node's literal whenever (a, b) (canonically ordered) has
// already been built.
type Graph struct {
	Nodes []Node

	// strash maps a canonical (lo, hi) fanin pair to the node index
	// already built for it: level-one structural hashing.
	strash map[[2]aig.Lit]int

	// satVars tracks every node index a SAT variable was allocated for,
	// so the sweep loop can clear them all back to NoVar after each
	// query without walking the whole graph.
	satVars []int

	// refCount[i] counts the And calls that took node i as a fanin past
	// constant propagation, including calls answered by an existing
	// strashed node, so it can exceed the number of distinct AND nodes
	// that use i. The CnfBuilder super-gate collector
	// stops at any node referenced more than once, since such a node is
	// shared and must get its own CNF variable rather than being folded
	// transparently into an ancestor's super-gate.
	refCount []int32
}

// New creates an empty rebuilt graph with only the constant-zero node.
func New() *Graph {
	return &Graph{
		Nodes:    []Node{{SatVar: NoVar}},
		strash:   make(map[[2]aig.Lit]int),
		refCount: []int32{0},
	}
}

// NewCI appends a fresh CI node to the rebuilt graph and returns its
// literal.
func (g *Graph) NewCI() aig.Lit {
	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{IsCI: true, SatVar: NoVar})
	g.refCount = append(g.refCount, 0)
	return aig.NewLit(idx, false)
}

// RefCount reports how many And calls in this rebuilt graph have used node
// idx as a fanin, strash hits included.
func (g *Graph) RefCount(idx int) int32 { return g.refCount[idx] }

// constTrue and constFalse are the rebuilt graph's own constant literals:
// Const0Index uncomplemented is logical 0, complemented is logical 1.
func constFalse() aig.Lit { return aig.NewLit(Const0Index, false) }
func constTrue() aig.Lit  { return aig.NewLit(Const0Index, true) }

func canonicalPair(a, b aig.Lit) [2]aig.Lit {
	if a > b {
		a, b = b, a
	}
	return [2]aig.Lit{a, b}
}

// And builds (or reuses, via strashing) the rebuilt-AIG literal for a
// AND b, applying constant propagation and level-one strashing before
// falling back to allocating a new node. It also flags the new node's
// Mark0 if it is AND(NAND(s,t), NAND(not-s,e)), the two-level pattern
// whose complement is ite(s, t, e).
func (g *Graph) And(a, b aig.Lit) aig.Lit {
	switch {
	case a == constFalse() || b == constFalse():
		return constFalse()
	case a == constTrue():
		return b
	case b == constTrue():
		return a
	case a == b:
		return a
	case a == b.Not():
		return constFalse()
	}

	key := canonicalPair(a, b)
	g.refCount[key[0].Index()]++
	g.refCount[key[1].Index()]++

	if idx, ok := g.strash[key]; ok {
		return aig.NewLit(idx, false)
	}

	idx := len(g.Nodes)
	n := Node{Fanin0: key[0], Fanin1: key[1], SatVar: NoVar}
	n.Mark0 = g.detectMux(key[0], key[1])
	g.Nodes = append(g.Nodes, n)
	g.refCount = append(g.refCount, 0)
	g.strash[key] = idx
	return aig.NewLit(idx, false)
}

// detectMux checks whether fanins f0, f1 (both already-built AND outputs)
// are the complemented sub-ANDs NAND(s,t) and NAND(not-s,e). The node over
// them, AND(NAND(s,t), NAND(not-s,e)), is then the complement of
// NAND(NAND(s,t), NAND(not-s,e)) = ite(s, t, e), the standard
// two-AND-and-an-OR encoding of a MUX.
func (g *Graph) detectMux(f0, f1 aig.Lit) bool {
	if !f0.IsComplemented() || !f1.IsComplemented() {
		return false
	}
	i0, i1 := f0.Index(), f1.Index()
	if i0 == Const0Index || i1 == Const0Index {
		return false
	}
	n0, n1 := g.Nodes[i0], g.Nodes[i1]
	if n0.IsCI || n1.IsCI {
		return false
	}
	pairs := [4][2]aig.Lit{
		{n0.Fanin0, n1.Fanin0},
		{n0.Fanin0, n1.Fanin1},
		{n0.Fanin1, n1.Fanin0},
		{n0.Fanin1, n1.Fanin1},
	}
	for _, p := range pairs {
		if p[0].Index() == p[1].Index() &&
			p[0].Index() != Const0Index &&
			p[0].IsComplemented() != p[1].IsComplemented() {
			return true
		}
	}
	return false
}

// SameVariable reports whether two rebuilt-AIG literals reference the
// same underlying node, i.e. are structurally identical up to inversion.
// The sweep loop uses this to skip a SAT call entirely when a node and
// its candidate representative already strashed to one node.
func SameVariable(a, b aig.Lit) bool {
	return a.Index() == b.Index()
}

// AllocSatVar allocates SAT variable v for node idx and records it for
// later clearing.
func (g *Graph) AllocSatVar(idx int, v int32) {
	g.Nodes[idx].SatVar = v
	g.satVars = append(g.satVars, idx)
}

// ClearSatVars resets SatVar to NoVar for every node touched since the
// last clear, as required after every SAT query.
func (g *Graph) ClearSatVars() {
	for _, idx := range g.satVars {
		g.Nodes[idx].SatVar = NoVar
	}
	g.satVars = g.satVars[:0]
}
