// Package reconcile keeps the layer stacks and the live scene consistent.
//
// Data flows outbound only, from scene to store: transform events are
// coalesced by a [sched.Debouncer] and, once the scene has been quiet for
// the debounce window, every tagged object is diffed against its record
// and differing records are replaced. Inbound flow happens only through a
// full rebuild on side switch.
//
// # Side Switch
//
// [Engine.SwitchSide] runs a fixed sequence on the loop thread:
//
//  1. cancel the pending batch and run it now, so the abandoned side's
//     stack holds every edit
//  2. record the new active side
//  3. rebuild the surface from the new side's stack
//
// Because step 1 happens before the rebuild, switching away and back
// without edits reproduces the original side exactly.
package reconcile
