// Package layer defines the canonical, persistable design model.
//
// A design has two sides. Each [Side] owns an ordered [Stack] of [Record]s,
// one per user-added element (text or raster image). Records are the source
// of truth: the live scene is a projection of the active side's stack and
// can be torn down and rebuilt from it at any time.
//
// A [Session] groups the selected product and color with both stacks and
// tracks which side is being edited.
package layer
