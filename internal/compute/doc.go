// Package compute is the force-accumulation driver.
//
// Compute runs any pair family over a neighbor list on one of two
// execution models:
//
//   - cpu: a host worker pool. Each worker owns a contiguous range of
//     particles and checks the context between chunks.
//   - group: an emulation of a wide-SIMT accelerator. Threads are
//     organized in groups; each group stages the parameter table into its
//     own shared-memory arena and accumulates with atomic adds. Threads
//     check the context every ChunkSize particles of their stride.
//
// The family is a type parameter, so the per-pair evaluator is a stack
// value and every call into it is resolved at compile time:
//
//	acc, stats, err := compute.Compute[pair.Morse](ctx, sys, list, table, compute.Options{Shift: true})
//
// TailCorrections and Curve use the same contract outside the pair loop.
package compute
