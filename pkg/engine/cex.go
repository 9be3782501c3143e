package engine

import (
	"github.com/gitrdm/satsweep/pkg/aig"
	"github.com/gitrdm/satsweep/pkg/simpack"
)

// Cex is a primary-input assignment witness showing a miter output can be
// driven to 1.
type Cex struct {
	// PO is the failing combinational output's node index.
	PO int
	// CIBits maps each CI node index to its witness value.
	CIBits map[int]bool
}

// buildCex locates the first (lowest-index) simulation column at which
// CO co's word is 1 and reads every CI's value at that column. If co's
// phase is already nonzero (it fires under the all-zero pattern), it
// shortcuts straight to the all-zero assignment without touching sim.
func buildCex(g *aig.Graph, sim *simpack.Sim, co int) *Cex {
	bits := make(map[int]bool, len(g.CIs))

	if g.Phase(co) {
		for _, ci := range g.CIs {
			bits[ci] = false
		}
		return &Cex{PO: co, CIBits: bits}
	}

	col := sim.FirstSetColumn(co)
	word, off := col/64, uint(col%64)
	for _, ci := range g.CIs {
		row := sim.Row(ci)
		bits[ci] = (row[word]>>off)&1 != 0
	}
	return &Cex{PO: co, CIBits: bits}
}

// anyCoFired reports the first CO (in declaration order) whose simulation
// word is nonzero anywhere, or -1 if none fired.
func anyCoFired(g *aig.Graph, sim *simpack.Sim) int {
	for _, co := range g.COs {
		for _, word := range sim.Row(co) {
			if word != 0 {
				return co
			}
		}
	}
	return -1
}
