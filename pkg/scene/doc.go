// Package scene owns the live rendering surface and its projection from
// layer records.
//
// A [Surface] is a fixed 500x600 canvas holding z-ordered [Object]s. User
// elements carry a [Tag] (layer id, side, preset id) in a side table keyed
// by [Handle]; the garment mockup and the backdrop are base objects with
// reserved names and no tag.
//
// The [Adapter] keeps the surface a faithful projection of the active
// side's stack. It mounts the surface, rebuilds it from a stack on side
// switches (loading images off-loop and inserting them in stack order when
// they resolve) and tears it down. A generation counter makes loads that
// resolve after a newer rebuild or a teardown harmless no-ops.
//
// [Build] constructs an isolated surface from records for off-screen
// rendering; it never touches the live surface.
package scene
