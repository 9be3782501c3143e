// Package simpack implements parallel bit-packed simulation over an AIG:
// every node carries W words of 64 packed simulation patterns, propagated
// in topological order. This is the candidate-equivalence oracle the rest
// of the engine refines and verifies.
package simpack

import (
	"fmt"
	"math/bits"
	"math/rand/v2"
	"sync"

	"github.com/gitrdm/satsweep/pkg/aig"
)

// rowPool reuses the []uint64 backing arrays for simulation rows across
// engine runs, one pool per word count.
var rowPool sync.Map // map[int]*sync.Pool, keyed by W

func poolFor(w int) *sync.Pool {
	if p, ok := rowPool.Load(w); ok {
		return p.(*sync.Pool)
	}
	p := &sync.Pool{New: func() any { return make([]uint64, w) }}
	actual, _ := rowPool.LoadOrStore(w, p)
	return actual.(*sync.Pool)
}

// Sim is the bit-packed simulation store for a graph: sim[i][0..W) with
// word 0's LSB mirroring the node's phase, and iPatsPi tracking the next
// free column for SAT-derived counter-example injection.
type Sim struct {
	g *aig.Graph
	w int

	// rows[i] is node i's W-word simulation vector.
	rows [][]uint64

	// iPatsPi is the next free pattern column in [1, 64*W), column 0
	// being reserved for the all-zero pattern.
	iPatsPi int

	rng *rand.Rand
}

// New allocates simulation storage for g with W words per node (C1
// AllocW). Sim storage, once allocated, is reused across rounds.
func New(g *aig.Graph, w int) (*Sim, error) {
	if w <= 0 {
		return nil, fmt.Errorf("simpack: nSimWords must be positive, got %d", w)
	}
	s := &Sim{
		g:       g,
		w:       w,
		rows:    make([][]uint64, g.N()),
		iPatsPi: 1,
		rng:     rand.New(rand.NewPCG(1, 2)),
	}
	pool := poolFor(w)
	for i := range s.rows {
		row := pool.Get().([]uint64)
		for j := range row {
			row[j] = 0
		}
		s.rows[i] = row
	}
	return s, nil
}

// W reports the configured words-per-node.
func (s *Sim) W() int { return s.w }

// IPatsPi reports the next free SAT-counter-example column.
func (s *Sim) IPatsPi() int { return s.iPatsPi }

// Row exposes node i's raw simulation words (read-only use expected
// outside this package; SetInputBit is the sanctioned mutator).
func (s *Sim) Row(i int) []uint64 { return s.rows[i] }

// RandomizeCIs assigns each CI fresh random words, with word 0 shifted
// left by one bit so bit 0 is reserved for the phase column (column 0 is
// the all-zero pattern and must stay all-zero, which the left shift
// guarantees since it clears bit 0 without touching the random upper
// bits).
func (s *Sim) RandomizeCIs() {
	for _, ci := range s.g.CIs {
		row := s.rows[ci]
		for j := 0; j < s.w; j++ {
			row[j] = s.rng.Uint64()
		}
		row[0] <<= 1
	}
}

// PropagateAnds computes sim[i] for every AND node in topological (index)
// order, honoring each fanin's complement bit across all four polarity
// combinations.
func (s *Sim) PropagateAnds() {
	for _, i := range s.g.Ands {
		n := &s.g.Nodes[i]
		a := s.rows[n.Fanin0.Index()]
		b := s.rows[n.Fanin1.Index()]
		out := s.rows[i]
		ac, bc := n.Fanin0.IsComplemented(), n.Fanin1.IsComplemented()
		for j := 0; j < s.w; j++ {
			av, bv := a[j], b[j]
			if ac {
				av = ^av
			}
			if bc {
				bv = ^bv
			}
			out[j] = av & bv
		}
	}
}

// EvalCos computes sim[co] = sim[driver] XOR-masked by the driver's
// complement bit, for every CO.
func (s *Sim) EvalCos() {
	for _, co := range s.g.COs {
		n := &s.g.Nodes[co]
		src := s.rows[n.Fanin0.Index()]
		out := s.rows[co]
		if n.Fanin0.IsComplemented() {
			for j := 0; j < s.w; j++ {
				out[j] = ^src[j]
			}
		} else {
			copy(out, src)
		}
	}
}

// Equal is the candidate-equivalence test: true iff the two simulation
// vectors are equal or bitwise-complementary, selected by the parity of
// their column-0 LSBs (word 0 bit 0 mirrors each node's phase). This
// conservatively over-approximates logical equivalence; SAT is the final
// arbiter.
func (s *Sim) Equal(i, j int) bool {
	a, b := s.rows[i], s.rows[j]
	wantComplement := (a[0] & 1) != (b[0] & 1)
	for k := 0; k < s.w; k++ {
		if wantComplement {
			if a[k] != ^b[k] {
				return false
			}
		} else if a[k] != b[k] {
			return false
		}
	}
	return true
}

// SetInputBit injects a single-bit value at (ci, col); used by the sweep
// loop to record a SAT-derived counter-example pattern. col must lie in
// [0, 64*W).
func (s *Sim) SetInputBit(ci, col int, bit bool) error {
	if col < 0 || col >= 64*s.w {
		return fmt.Errorf("simpack: SetInputBit column %d out of range [0,%d)", col, 64*s.w)
	}
	word, off := col/64, uint(col%64)
	row := s.rows[ci]
	if bit {
		row[word] |= 1 << off
	} else {
		row[word] &^= 1 << off
	}
	return nil
}

// AdvancePattern advances iPatsPi to the next free column, wrapping
// within [1, 64*W). Liveness under wrap-around rests on the outer loop's
// zero-disproof termination test, not on preserving any particular
// earlier pattern.
func (s *Sim) AdvancePattern() int {
	s.iPatsPi++
	if s.iPatsPi >= 64*s.w {
		s.iPatsPi = 1
	}
	return s.iPatsPi
}

// FirstSetColumn returns the lowest column index at which node i's
// simulation word is 1, or -1 if the whole vector is zero. Used by
// CexBuilder to locate a miter-failing pattern.
func (s *Sim) FirstSetColumn(i int) int {
	row := s.rows[i]
	for word, v := range row {
		if v != 0 {
			return word*64 + bits.TrailingZeros64(v)
		}
	}
	return -1
}

// Release returns this Sim's row storage to the pool. Call once the
// engine run that owns it is done.
func (s *Sim) Release() {
	pool := poolFor(s.w)
	for _, row := range s.rows {
		pool.Put(row) //nolint:staticcheck // pool element reuse, not an escape
	}
	s.rows = nil
}
