package compute_test

import (
	"context"
	"math"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/pairsim/internal/compute"
	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/logger"
	"github.com/san-kum/pairsim/internal/metrics"
	"github.com/san-kum/pairsim/internal/nlist"
	"github.com/san-kum/pairsim/internal/pair"
	"github.com/san-kum/pairsim/internal/params"
	"github.com/san-kum/pairsim/internal/sim"
)

const rcut = 2.5

func morseSystem() (*sim.System, *params.Table[pair.MorseParams]) {
	sys, err := sim.Build(sim.Setup{
		N:              216,
		Box:            dynamo.NewCubicBox(7),
		NumTypes:       2,
		Diameters:      []float64{1.0, 1.2},
		Polydispersity: 0.05,
		Jitter:         0.3,
		Seed:           7,
	})
	Expect(err).NotTo(HaveOccurred())

	tbl := params.NewTable[pair.MorseParams]([]string{"A", "B"})
	tbl.Set(0, 0, pair.MorseParams{D0: 1, Alpha: 3, R0: 1.1, Poly: 0.05})
	tbl.Set(0, 1, pair.MorseParams{D0: 1.5, Alpha: 2.5, R0: 1.0})
	tbl.Set(1, 1, pair.MorseParams{D0: 0.8, Alpha: 4, R0: 1.2})
	for a := uint32(0); a < 2; a++ {
		for b := a; b < 2; b++ {
			tbl.SetRCut(a, b, rcut)
		}
	}
	return sys, tbl
}

func buildList(sys *sim.System, mode nlist.Mode) *nlist.List {
	l, err := nlist.Build(sys, rcut, 0.3, mode)
	Expect(err).NotTo(HaveOccurred())
	return l
}

func quiet(o compute.Options) compute.Options {
	o.Logger = logger.Discard()
	return o
}

var _ = Describe("Compute", func() {
	ctx := context.Background()

	Describe("backends", func() {
		It("agree between host and group execution", func() {
			sys, tbl := morseSystem()
			for _, mode := range []nlist.Mode{nlist.Half, nlist.Full} {
				list := buildList(sys, mode)
				host, hs, err := compute.Compute[pair.Morse](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendCPU, Shift: true}))
				Expect(err).NotTo(HaveOccurred())
				group, gs, err := compute.Compute[pair.Morse](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendGroup, Shift: true, ThreadsPerGroup: 8, Groups: 5}))
				Expect(err).NotTo(HaveOccurred())

				Expect(metrics.RelativeDifference(host, group)).To(BeNumerically("<", 1e-10))
				Expect(gs.Evaluated).To(Equal(hs.Evaluated))
				Expect(hs.Evaluated + hs.Skipped).To(Equal(list.NumPairs()))
				Expect(hs.Evaluated).To(BeNumerically(">", 0))
			}
		})

		It("agree between half and full neighbor lists", func() {
			sys, tbl := morseSystem()
			half, _, err := compute.Compute[pair.Morse](ctx, sys, buildList(sys, nlist.Half), tbl, quiet(compute.Options{Backend: compute.BackendCPU}))
			Expect(err).NotTo(HaveOccurred())
			full, _, err := compute.Compute[pair.Morse](ctx, sys, buildList(sys, nlist.Full), tbl, quiet(compute.Options{Backend: compute.BackendCPU, Workers: 3}))
			Expect(err).NotTo(HaveOccurred())

			Expect(metrics.RelativeDifference(half, full)).To(BeNumerically("<", 1e-10))
			Expect(half.TotalEnergy()).To(BeNumerically("~", full.TotalEnergy(), 1e-9*math.Abs(full.TotalEnergy())))
		})

		It("conserve momentum", func() {
			sys, tbl := morseSystem()
			for _, b := range []compute.Backend{compute.BackendCPU, compute.BackendGroup} {
				acc, _, err := compute.Compute[pair.Morse](ctx, sys, buildList(sys, nlist.Half), tbl, quiet(compute.Options{Backend: b}))
				Expect(err).NotTo(HaveOccurred())

				maxF := 0.0
				for _, f := range acc.Force {
					maxF = math.Max(maxF, math.Sqrt(f.NormSq()))
				}
				net := math.Sqrt(acc.NetForce().NormSq())
				Expect(net).To(BeNumerically("<", 1e-10*maxF*float64(sys.N())))
			}
		})
	})

	Describe("group staging", func() {
		It("loads every entry exactly once per group", func() {
			var loads atomic.Int64
			sys := &sim.System{
				Positions: []dynamo.Vec3{{}, {X: 1}, {Y: 1}, {Z: 1}, {X: 1, Y: 1}, {X: -1}},
				Types:     []uint32{0, 1, 2, 0, 1, 2},
				Box:       dynamo.NewCubicBox(10),
			}
			tbl := params.NewTable[probeParams]([]string{"A", "B", "C"})
			for a := uint32(0); a < 3; a++ {
				for b := a; b < 3; b++ {
					tbl.Set(a, b, probeParams{Scale: 2, loads: &loads})
					tbl.SetRCut(a, b, 1.2)
				}
			}
			list, err := nlist.Build(sys, 1.2, 0, nlist.Half)
			Expect(err).NotTo(HaveOccurred())

			acc, st, err := compute.Compute[probe](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendGroup, ThreadsPerGroup: 4, Groups: 3}))
			Expect(err).NotTo(HaveOccurred())

			Expect(st.Groups).To(Equal(3))
			Expect(st.Loads).To(Equal(3 * tbl.Len()))
			Expect(loads.Load()).To(Equal(int64(3 * tbl.Len())))
			Expect(st.Staged).To(BeNumerically(">=", tbl.Len()*8))
			Expect(acc.TotalEnergy()).To(BeNumerically("~", 2*float64(st.Evaluated), 1e-12))
		})

		It("falls back to bulk memory when the arena is too small", func() {
			sys, _ := morseSystem()
			rec := params.Record{"r_min": 0.5, "V": linspace(5, 0, 64), "F": linspace(4, 0, 64)}
			tp, err := pair.NewTableParams(rec, false)
			Expect(err).NotTo(HaveOccurred())

			tbl := params.NewTable[pair.TableParams]([]string{"A", "B"})
			for a := uint32(0); a < 2; a++ {
				for b := a; b < 2; b++ {
					tbl.Set(a, b, tp)
					tbl.SetRCut(a, b, rcut)
				}
			}
			list := buildList(sys, nlist.Half)

			host, _, err := compute.Compute[pair.Table](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendCPU, Shift: true}))
			Expect(err).NotTo(HaveOccurred())
			roomy, _, err := compute.Compute[pair.Table](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendGroup, Shift: true}))
			Expect(err).NotTo(HaveOccurred())
			tight, st, err := compute.Compute[pair.Table](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendGroup, Shift: true, SharedBytes: 600}))
			Expect(err).NotTo(HaveOccurred())

			Expect(st.Staged).To(BeNumerically("<=", 600))
			Expect(metrics.RelativeDifference(host, roomy)).To(BeNumerically("<", 1e-10))
			Expect(metrics.RelativeDifference(host, tight)).To(BeNumerically("<", 1e-10))
			Expect(&tbl.Get(0, 0).V[0]).To(BeIdenticalTo(&tp.V[0]))

			_, _, err = compute.Compute[pair.Table](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendGroup, SharedBytes: 600, StrictShared: true}))
			Expect(err).To(MatchError(dynamo.ErrArenaExhausted))
			_, _, err = compute.Compute[pair.Table](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendGroup, StrictShared: true}))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("attribute negotiation", func() {
		It("rejects a charged family without charges", func() {
			sys, _ := morseSystem()
			tbl := params.NewTable[pair.EwaldParams]([]string{"A", "B"})
			for a := uint32(0); a < 2; a++ {
				for b := a; b < 2; b++ {
					tbl.Set(a, b, pair.EwaldParams{Kappa: 1, Alpha: 0})
					tbl.SetRCut(a, b, rcut)
				}
			}
			_, _, err := compute.Compute[pair.Ewald](ctx, sys, buildList(sys, nlist.Half), tbl, quiet(compute.Options{}))
			Expect(err).To(MatchError(dynamo.ErrConfig))
		})

		It("skips neutral pairs", func() {
			sys, _ := morseSystem()
			sys.Charge = make([]float64, sys.N())
			for i := range sys.Charge {
				if i%3 == 0 {
					sys.Charge[i] = 1
				}
			}
			tbl := params.NewTable[pair.EwaldParams]([]string{"A", "B"})
			for a := uint32(0); a < 2; a++ {
				for b := a; b < 2; b++ {
					tbl.Set(a, b, pair.EwaldParams{Kappa: 1, Alpha: 0.2})
					tbl.SetRCut(a, b, rcut)
				}
			}
			list := buildList(sys, nlist.Half)
			_, st, err := compute.Compute[pair.Ewald](ctx, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendCPU}))
			Expect(err).NotTo(HaveOccurred())

			charged := 0
			for i := 0; i < sys.N(); i++ {
				for _, j := range list.Of(i) {
					d := sys.Box.MinImage(sys.Positions[i].Sub(sys.Positions[j]))
					if sys.Charge[i]*sys.Charge[j] != 0 && d.NormSq() < rcut*rcut {
						charged++
					}
				}
			}
			Expect(st.Evaluated).To(Equal(charged))
		})

		It("requires parameters for every type pair", func() {
			sys, _ := morseSystem()
			tbl := params.NewTable[pair.MorseParams]([]string{"A", "B"})
			tbl.Set(0, 0, pair.MorseParams{D0: 1, Alpha: 1, R0: 1})
			_, _, err := compute.Compute[pair.Morse](ctx, sys, buildList(sys, nlist.Half), tbl, quiet(compute.Options{}))
			Expect(err).To(MatchError(dynamo.ErrConfig))
		})
	})

	Describe("cancellation", func() {
		It("stops between chunks", func() {
			sys, tbl := morseSystem()
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			for _, b := range []compute.Backend{compute.BackendCPU, compute.BackendGroup} {
				_, _, err := compute.Compute[pair.Morse](canceled, sys, buildList(sys, nlist.Half), tbl, quiet(compute.Options{Backend: b}))
				Expect(err).To(MatchError(dynamo.ErrContextCanceled))
				Expect(err).To(MatchError(context.Canceled))
			}
		})

		It("stops group threads canceled after the launch", func() {
			var loads atomic.Int64
			inner, cancel := context.WithCancel(ctx)
			defer cancel()

			sys, err := sim.Build(sim.Setup{N: 64, Box: dynamo.NewCubicBox(6), NumTypes: 1})
			Expect(err).NotTo(HaveOccurred())
			tbl := params.NewTable[probeParams]([]string{"A"})
			tbl.Set(0, 0, probeParams{Scale: 1, loads: &loads, onLoad: cancel})
			tbl.SetRCut(0, 0, 1.5)
			list, err := nlist.Build(sys, 1.5, 0, nlist.Half)
			Expect(err).NotTo(HaveOccurred())

			_, _, err = compute.Compute[probe](inner, sys, list, tbl, quiet(compute.Options{Backend: compute.BackendGroup, ThreadsPerGroup: 8, Groups: 1}))
			Expect(err).To(MatchError(dynamo.ErrContextCanceled))
			Expect(loads.Load()).To(Equal(int64(1)))
		})
	})

	Describe("TailCorrections", func() {
		It("matches the Lennard-Jones closed form", func() {
			sys, err := sim.Build(sim.Setup{N: 100, Box: dynamo.NewCubicBox(10), NumTypes: 2})
			Expect(err).NotTo(HaveOccurred())

			tbl := params.NewTable[pair.LJParams]([]string{"A", "B"})
			tbl.Set(0, 0, pair.LJParams{Epsilon: 1, Sigma: 1})
			tbl.Set(0, 1, pair.LJParams{Epsilon: 0.5, Sigma: 1.1})
			tbl.Set(1, 1, pair.LJParams{Epsilon: 2, Sigma: 0.9})
			tbl.SetRCut(0, 0, 2.5)
			tbl.SetRCut(0, 1, 3.0)
			tbl.SetRCut(1, 1, 2.0)

			integrals := func(eps, sigma, rc float64) (float64, float64) {
				lj1 := 4 * eps * math.Pow(sigma, 12)
				lj2 := 4 * eps * math.Pow(sigma, 6)
				return lj1/9*math.Pow(rc, -9) - lj2/3*math.Pow(rc, -3),
					4.0/3*lj1*math.Pow(rc, -9) - 2*lj2*math.Pow(rc, -3)
			}
			eAA, pAA := integrals(1, 1, 2.5)
			eAB, pAB := integrals(0.5, 1.1, 3.0)
			eBB, pBB := integrals(2, 0.9, 2.0)

			v := 1000.0
			na, nb := 50.0, 50.0
			wantE := 2 * math.Pi / v * (na*na*eAA + 2*na*nb*eAB + nb*nb*eBB)
			wantP := 2 * math.Pi / (3 * v * v) * (na*na*pAA + 2*na*nb*pAB + nb*nb*pBB)

			e, p := compute.TailCorrections[pair.LJ](sys, tbl)
			Expect(e).To(BeNumerically("~", wantE, 1e-12*math.Abs(wantE)))
			Expect(p).To(BeNumerically("~", wantP, 1e-12*math.Abs(wantP)))
			Expect(e).To(BeNumerically("<", 0))
		})

		It("is zero for families without a tail", func() {
			sys, tbl := morseSystem()
			e, p := compute.TailCorrections[pair.Morse](sys, tbl)
			Expect(e).To(BeZero())
			Expect(p).To(BeZero())
		})
	})

	Describe("Curve", func() {
		It("finds the Morse minimum", func() {
			p := pair.MorseParams{D0: 2, Alpha: 1.5, R0: 1.25}
			samples := compute.Curve[pair.Morse](&p, 0.5, 3, 250, false, compute.PairAttrs{})
			Expect(samples).To(HaveLen(250))

			best := samples[0]
			for _, s := range samples {
				Expect(s.OK).To(BeTrue())
				if s.Energy < best.Energy {
					best = s
				}
			}
			Expect(best.R).To(BeNumerically("~", 1.25, 0.01))
			Expect(best.Energy).To(BeNumerically("~", -2, 1e-3))
			Expect(math.Abs(best.Force)).To(BeNumerically("<", 0.1))
		})
	})
})

func linspace(from, to float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}
