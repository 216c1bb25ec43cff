// Package sched provides the single logical thread the design engine runs on.
//
// A [Loop] is a FIFO task queue. Scene mutations, debounced synchronization,
// pricing passes and image-load continuations are all posted to it and run
// one at a time, so engine state needs no locks. Blocking work (network and
// disk reads) runs off-loop through [Go]; its continuation is posted back.
//
// The loop can be driven two ways:
//
//	// long-lived: a dedicated goroutine owns the engine
//	go loop.Run(ctx)
//
//	// drain mode: the caller's goroutine is the engine thread
//	editor.AddText(...)
//	loop.Settle(ctx) // run queued tasks and wait for in-flight loads
//
// Time is abstracted behind [Clock] so debounce windows can be tested with a
// [ManualClock].
package sched
