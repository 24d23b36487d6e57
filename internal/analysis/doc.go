// Package analysis provides structural diagnostics for particle systems.
//
//   - [RadialDistribution]: pair correlation g(r) under the minimum image
//   - [NewHistogram]: fixed-width histogram of per-particle observables
//
// # Coordination
//
// The mean number of neighbors inside a shell follows from g(r):
//
//	rdf, _ := analysis.RadialDistribution(sys, 2.5, 100)
//	n := rdf.Coordination(1.5)
package analysis
