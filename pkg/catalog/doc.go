// Package catalog provides the size preset table and the product catalog.
//
// # Size presets
//
// Elements on a garment are never freely resized. Each one is pinned to a
// [Preset] from a closed enumeration (pocket, small, medium, large) that
// bounds its pixel size and fixes its price:
//
//	c := catalog.Default()
//	p, ok := c.Lookup(catalog.PresetLarge) // 300x380 px, ₹200
//
// A TOML file may override the bounds and prices of the known presets but
// cannot add or remove presets:
//
//	[[preset]]
//	id = "pocket"
//	max_width = 100
//	max_height = 100
//	price = 60
//
// # Products
//
// A [Product] carries per-color [Variant]s whose image URLs hold the base
// garment mockups. Products come from a [Source]: [FileSource] reads a TOML
// file, and the HTTP API client serves the same interface remotely.
package catalog
