// Package observability provides hooks for metrics, tracing, and logging.
//
// Hooks are interfaces with no-op defaults, so instrumentation never pulls a
// metrics backend into the engine. The CLI registers log-based hooks when
// run with --verbose.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetSyncHooks(&mySyncHooks{})
//	observability.SetCacheHooks(&myCacheHooks{})
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnPreviewStart(ctx, "back", true)
//	// ... render ...
//	observability.Render().OnPreviewComplete(ctx, "back", size, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Sync Hooks
// =============================================================================

// SyncHooks receives events from the scene/store reconciliation engine.
type SyncHooks interface {
	// OnOutboundSync records a scene → store scan and the sides it wrote.
	OnOutboundSync(scanned int, changedSides []string, duration time.Duration)

	// OnSideSwitch records a completed side transition.
	OnSideSwitch(from, to string, layers int)
}

// =============================================================================
// Pricing Hooks
// =============================================================================

// PricingHooks receives events from the metrics and pricing engine.
type PricingHooks interface {
	// OnRecompute records one pricing pass over the live scene.
	OnRecompute(objects int, duration time.Duration)
}

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the preview renderer.
type RenderHooks interface {
	OnPreviewStart(ctx context.Context, side string, offscreen bool)
	OnPreviewComplete(ctx context.Context, side string, bytes int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSyncHooks is a no-op implementation of SyncHooks.
type NoopSyncHooks struct{}

func (NoopSyncHooks) OnOutboundSync(int, []string, time.Duration) {}
func (NoopSyncHooks) OnSideSwitch(string, string, int)            {}

// NoopPricingHooks is a no-op implementation of PricingHooks.
type NoopPricingHooks struct{}

func (NoopPricingHooks) OnRecompute(int, time.Duration) {}

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnPreviewStart(context.Context, string, bool) {}
func (NoopRenderHooks) OnPreviewComplete(context.Context, string, int, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Registry
// =============================================================================

// slot holds one registered hook set and its no-op default.
type slot[T any] struct {
	mu  sync.RWMutex
	cur T
	def T
}

func newSlot[T any](def T) *slot[T] { return &slot[T]{cur: def, def: def} }

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// set installs h. A nil interface leaves the current hooks in place.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.cur = h
	s.mu.Unlock()
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.cur = s.def
	s.mu.Unlock()
}

var (
	syncSlot    = newSlot[SyncHooks](NoopSyncHooks{})
	pricingSlot = newSlot[PricingHooks](NoopPricingHooks{})
	renderSlot  = newSlot[RenderHooks](NoopRenderHooks{})
	cacheSlot   = newSlot[CacheHooks](NoopCacheHooks{})
)

// SetSyncHooks registers sync hooks. Call it once at startup.
func SetSyncHooks(h SyncHooks) { syncSlot.set(h) }

func SetPricingHooks(h PricingHooks) { pricingSlot.set(h) }
func SetRenderHooks(h RenderHooks)   { renderSlot.set(h) }
func SetCacheHooks(h CacheHooks)     { cacheSlot.set(h) }

func Sync() SyncHooks       { return syncSlot.get() }
func Pricing() PricingHooks { return pricingSlot.get() }
func Render() RenderHooks   { return renderSlot.get() }
func Cache() CacheHooks     { return cacheSlot.get() }

// Reset restores the no-op hooks. Tests that register hooks defer it.
func Reset() {
	syncSlot.reset()
	pricingSlot.reset()
	renderSlot.reset()
	cacheSlot.reset()
}
