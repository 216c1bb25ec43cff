// Package preview flattens a scene into raster previews.
//
// The live surface of the active side is captured directly with
// [Renderer.Snapshot]. Any other side is rendered by [Renderer.Offscreen]
// on an isolated surface built from that side's records; the live surface
// and its listeners are never touched.
//
// Previews are downscaled to fit [DefaultMaxWidth] x [DefaultMaxHeight] and
// recompressed as JPEG into a data URI, which keeps persistence payloads
// small. [Renderer.Download] produces a full-resolution PNG instead.
//
// Rendering uses github.com/gogpu/gg for text and encoding. Rotated
// elements are composited with an affine transform from
// golang.org/x/image/draw, since gg's image drawing is axis-aligned.
package preview
