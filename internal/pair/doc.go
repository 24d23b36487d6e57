// Package pair defines the pair-potential evaluator contract and the
// families compiled into pairsim.
//
// A family is a pair of types: a parameter struct P stored once per type
// pair in a [params.Table], and an evaluator value type E constructed per
// pair. Drivers are generic over E and hold it on the stack:
//
//	var e pair.Morse
//	e.Init(pair.Geometry{RSq: rsq, RCutSq: rcutsq}, table.Get(ti, tj))
//	if caps.Diameter {
//		e.SetDiameter(di, dj)
//	}
//	if fdivr, u, ok := e.Eval(shift); ok {
//		// accumulate
//	}
//
// Families:
//
//   - [Ewald]: real-space screened Ewald, needs charge
//   - [Fourier]: inverse-12 core plus a Fourier series scaled to the cutoff
//   - [Morse]: attractive well with optional polydisperse offset, needs diameter
//   - [LJ]: Lennard-Jones 12-6 with analytic tail corrections
//   - [Table]: linear interpolation of tabulated V and F, staged into shared memory
package pair
