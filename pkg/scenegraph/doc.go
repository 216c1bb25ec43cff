// Package scenegraph renders the object stack of a scene surface as a
// node-link diagram.
//
// # Overview
//
// Each object on a [scene.Surface] becomes a box, drawn bottom to top in
// paint order: backdrop, garment, then design elements. Edges run from an
// object to the one painted directly above it. Design elements carry
// their layer id and size preset in the label, so a dump shows at a
// glance how the surface maps back to the layer stack.
//
// # Usage
//
//	dot := scenegraph.ToDOT(surface, scenegraph.Options{Detailed: true})
//	svg, err := scenegraph.RenderSVG(dot)
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package scenegraph
