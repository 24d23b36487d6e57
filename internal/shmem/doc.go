// Package shmem models the fast per-group memory of the accelerator
// execution model.
//
// Staging is a two-phase handshake run once per execution group and step:
//
//	c := shmem.SizingCursor(limit)
//	for i := range entries { entries[i].AllocateShared(c) }  // measure
//	arena := shmem.NewArena(c.Used())
//	c = arena.CursorAt(0, arena.Size())
//	for i := range entries { entries[i].LoadShared(c) }      // copy
//	barrier.Wait()
//
// Every goroutine of the group must pass the [Barrier] before reading a
// staged copy.
package shmem
