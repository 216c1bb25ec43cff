// Package pkg provides the core libraries for Mockup, a headless garment
// design engine.
//
// # Overview
//
// A shopper places text and images on the front and back of a garment.
// Mockup keeps the live editing surface and the persisted layer stacks in
// sync, prices each side by the size presets it uses, renders previews,
// and assembles the design payload sent to storage and the cart. The pkg
// directory is organized into four main areas:
//
//  1. Domain model - [catalog], [layer], [pricing]
//  2. Engines - [scene], [reconcile], [resource], [fonts], [preview], [sched]
//  3. Facade and persistence - [design], [payload], [store], [cache]
//  4. Outer surfaces - [api], [scenegraph], [observability]
//
// # Architecture
//
// The typical data flow through an editing session:
//
//	UI command (add text, move, apply preset)
//	         ↓
//	    [design] package (Editor, one session at a time)
//	         ↓
//	    [scene] package (live surface of the active side)
//	         ↓
//	    [reconcile] package (debounced scene → layer stack sync)
//	         ↓
//	    [pricing] package (per-side preset costs, quote)
//	         ↓
//	    [payload] package (previews + layers) → [store]
//
// # Quick Start
//
// Open a session, place a text element and read the quote:
//
//	loop := sched.NewLoop()
//	loader := resource.NewLoader(resource.NewDefaultFetcher(), cache.NewNullCache(), logger)
//	ed, _ := design.New(loop, loader, design.Options{}, logger)
//	_ = ed.Open(ctx, product, "white", "M")
//	_, _ = ed.AddText(ctx, "Hello")
//	_ = loop.Settle(ctx)
//	fmt.Println(ed.State().TotalPrice)
//
// # Main Packages
//
// [catalog] - Products, variants, color images and the size preset table.
//
// [layer] - Layer records and the per-side stacks they live in. The stacks
// are the persisted truth of a design.
//
// [scene] - The retained-mode surface the editor draws on, the adapter that
// mounts it, and the builder that turns records into objects.
//
// [reconcile] - Outbound sync from the live surface into the active side's
// stack, plus the side-switch protocol.
//
// [pricing] - Layer metrics, preset classification and quotes. Amounts are
// github.com/shopspring/decimal values.
//
// [preview] - Snapshots, off-screen renders and full-size downloads.
//
// [payload] - Design and cart payloads with a size guard.
//
// [store] - Design and cart persistence over files, SQLite, MongoDB, Redis
// or memory.
//
// [api] - HTTP server and client for the catalog, designs, carts and quotes.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/design/...   # Editor scenarios
//
// [catalog]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/catalog
// [layer]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/layer
// [pricing]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/pricing
// [scene]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/scene
// [reconcile]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/reconcile
// [resource]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/resource
// [fonts]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/fonts
// [preview]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/preview
// [sched]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/sched
// [design]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/design
// [payload]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/payload
// [store]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/cache
// [api]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/api
// [scenegraph]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/scenegraph
// [observability]: https://pkg.go.dev/github.com/matzehuels/mockup/pkg/observability
package pkg
