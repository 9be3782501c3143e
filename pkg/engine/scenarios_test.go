package engine_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/gitrdm/satsweep/pkg/aig"
	"github.com/gitrdm/satsweep/pkg/engine"
)

// xorGates appends the AND/NOT gates computing a XOR b and returns its
// literal, mirroring cmd/sweepdemo's helper (a miter is exactly an XOR of
// two sub-circuits).
func xorGates(g *aig.Graph, a, b aig.Lit) aig.Lit {
	t1, err := g.AddAnd(a, b.Not())
	Expect(err).NotTo(HaveOccurred())
	t2, err := g.AddAnd(a.Not(), b)
	Expect(err).NotTo(HaveOccurred())
	or, err := g.AddAnd(aig.NewLit(t1, true), aig.NewLit(t2, true))
	Expect(err).NotTo(HaveOccurred())
	return aig.NewLit(or, true)
}

func runSweep(g *aig.Graph, cfg engine.Config) *engine.Result {
	result, err := engine.Run(context.Background(), g, cfg, zerolog.Nop())
	Expect(err).NotTo(HaveOccurred())
	return result
}

var _ = Describe("SAT-sweeping equivalence engine", func() {
	Describe("two identical inverters", func() {
		It("proves both redundant ANDs equivalent to the input they copy", func() {
			g := aig.New()
			a := aig.NewLit(g.AddCI(), false)
			ciA := g.CIs[0]
			n1, err := g.AddAnd(a, a)
			Expect(err).NotTo(HaveOccurred())
			n2, err := g.AddAnd(a, a)
			Expect(err).NotTo(HaveOccurred())

			result := runSweep(g, engine.DefaultConfig())

			// The CI precedes both ANDs, so it heads their shared class and
			// both copies merge against it.
			Expect(result.Classes.GetRepr(n1)).To(Equal(ciA))
			Expect(result.Classes.GetRepr(n2)).To(Equal(ciA))
			Expect(result.Graph.Nodes[n1].Proved).To(BeTrue())
			Expect(result.Graph.Nodes[n2].Proved).To(BeTrue())
			Expect(result.Cex).To(BeNil())
		})
	})

	// A miter of two syntactically distinct but logically equal 2-AND
	// expressions reports success with no counter-example.
	Describe("miter of equal circuits", func() {
		It("reports success and proves the output equivalent to constant 0", func() {
			g := aig.New()
			a := aig.NewLit(g.AddCI(), false)
			b := aig.NewLit(g.AddCI(), false)
			f, err := g.AddAnd(a, b)
			Expect(err).NotTo(HaveOccurred())
			gg, err := g.AddAnd(b, a)
			Expect(err).NotTo(HaveOccurred())
			po := xorGates(g, aig.NewLit(f, false), aig.NewLit(gg, false))
			_, err = g.AddCO(po)
			Expect(err).NotTo(HaveOccurred())

			cfg := engine.DefaultConfig()
			cfg.IsMiter = true
			result := runSweep(g, cfg)

			Expect(result.Success).To(BeTrue())
			Expect(result.Cex).To(BeNil())
			Expect(result.Classes.GetRepr(gg)).To(Equal(f))
			Expect(result.Classes.GetRepr(po.Index())).To(Equal(aig.Const0Index))
			Expect(result.Graph.Nodes[po.Index()].Proved).To(BeTrue())
		})
	})

	// f = a&b, g = a&!b differ whenever a=1; the engine must report
	// failure with a witnessing counter-example.
	Describe("miter with a one-bit discrepancy", func() {
		It("returns a counter-example witnessing a=1", func() {
			g := aig.New()
			a := aig.NewLit(g.AddCI(), false)
			ciA := g.CIs[0]
			b := aig.NewLit(g.AddCI(), false)
			f, err := g.AddAnd(a, b)
			Expect(err).NotTo(HaveOccurred())
			gg, err := g.AddAnd(a, b.Not())
			Expect(err).NotTo(HaveOccurred())
			po := xorGates(g, aig.NewLit(f, false), aig.NewLit(gg, false))
			_, err = g.AddCO(po)
			Expect(err).NotTo(HaveOccurred())

			cfg := engine.DefaultConfig()
			cfg.IsMiter = true
			result := runSweep(g, cfg)

			Expect(result.Success).To(BeFalse())
			Expect(result.Cex).NotTo(BeNil())
			Expect(result.Cex.CIBits[ciA]).To(BeTrue())
		})
	})

	// n = a & !a must be proved constant-0.
	Describe("constant-zero detection", func() {
		It("proves n equivalent to the constant-0 node", func() {
			g := aig.New()
			a := aig.NewLit(g.AddCI(), false)
			n, err := g.AddAnd(a, a.Not())
			Expect(err).NotTo(HaveOccurred())

			result := runSweep(g, engine.DefaultConfig())

			Expect(result.Classes.GetRepr(n)).To(Equal(aig.Const0Index))
			Expect(result.Graph.Nodes[n].Proved).To(BeTrue())
		})
	})

	// Idempotent-sweep law: a second, independent run over the same input
	// produces the same merges and the same flag set.
	Describe("idempotent sweep", func() {
		It("produces the same merges on a repeat run over a fresh graph copy", func() {
			build := func() (*aig.Graph, int, int) {
				g := aig.New()
				a := aig.NewLit(g.AddCI(), false)
				n1, err := g.AddAnd(a, a)
				Expect(err).NotTo(HaveOccurred())
				n2, err := g.AddAnd(a, a)
				Expect(err).NotTo(HaveOccurred())
				return g, n1, n2
			}

			g1, _, n2a := build()
			r1 := runSweep(g1, engine.DefaultConfig())

			g2, _, n2b := build()
			r2 := runSweep(g2, engine.DefaultConfig())

			Expect(r1.Graph.Nodes[n2a].Proved).To(Equal(r2.Graph.Nodes[n2b].Proved))
			Expect(r1.Classes.GetRepr(n2a)).To(Equal(r2.Classes.GetRepr(n2b)))
		})
	})

	Describe("configuration validation", func() {
		It("rejects a non-positive NSimWords", func() {
			g := aig.New()
			cfg := engine.DefaultConfig()
			cfg.NSimWords = 0
			_, err := engine.Run(context.Background(), g, cfg, zerolog.Nop())
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(engine.ErrConfigInvalid))
		})

		It("rejects a non-positive NConfLimit", func() {
			g := aig.New()
			cfg := engine.DefaultConfig()
			cfg.NConfLimit = 0
			_, err := engine.Run(context.Background(), g, cfg, zerolog.Nop())
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(engine.ErrConfigInvalid))
		})
	})
})
