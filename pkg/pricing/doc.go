// Package pricing computes per-layer geometry and per-side customization
// cost from the live scene.
//
// Metrics are always derived from scene objects, never from stored
// records, so a persisted transform that lags behind the canvas cannot
// leak into a price.
//
// # Cost Rules
//
// An element whose size preset resolves costs the preset's fixed price,
// whatever its on-canvas area. An element without a preset falls back to
// its scaled pixel area times [Options.PricePerPixel]. A side costs the
// most expensive of its elements; costs are not summed:
//
//	engine, _ := pricing.NewEngine(pricing.Options{}, logger)
//	front := engine.Compute(surface, layer.Front)
//	ledger.Publish(front)
//	quote := ledger.Quote(product.Price)
//
// # Presets
//
// [ApplyPreset] fits an element into a preset's bounding box without ever
// scaling it past its natural size. [Engine.RefreshAll] re-applies every
// element's stored preset after the preset table changes.
package pricing
