// Package design is the editing facade over the layer, scene, sync and
// pricing engines.
//
// An [Editor] owns one design session at a time. It mounts the live
// surface, turns UI commands (add text, add image, move, rotate, apply a
// preset, switch side, delete, reset) into scene and stack mutations, and
// publishes read-only [State] after every debounced pricing batch:
//
//	ed, _ := design.New(loop, loader, design.Options{}, logger,
//	    design.WithStore(designs), design.WithCart(cart))
//	ed.Open(ctx, product, "white", "M")
//	ed.AddText(ctx, "Hello")
//	loop.Settle(ctx)
//	fmt.Println(ed.State().TotalPrice)
//
// # Threading
//
// All Editor methods run on the editor's [sched.Loop]. Callers that drive
// the loop themselves (tests, the CLI script runner) call methods directly
// and settle the loop between commands; callers on other goroutines (the
// terminal UI, HTTP handlers) go through [Editor.Do].
//
// # Failures
//
// Every command failure is reported to the notifier as well as returned.
// Failures never corrupt the stacks: an element whose image cannot be
// loaded is left out, an oversized payload is refused before the store is
// called, and a rejected save leaves the session untouched for a retry.
package design
