package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/observability"
)

// debugHooks logs engine events at debug level.
type debugHooks struct {
	logger *log.Logger
}

// registerDebugHooks routes every observability event to l.
func registerDebugHooks(l *log.Logger) {
	h := &debugHooks{logger: l}
	observability.SetSyncHooks(h)
	observability.SetPricingHooks(h)
	observability.SetRenderHooks(h)
	observability.SetCacheHooks(h)
}

func (h *debugHooks) OnOutboundSync(scanned int, changed []string, d time.Duration) {
	if len(changed) == 0 {
		return
	}
	h.logger.Debug("synced scene", "scanned", scanned, "sides", changed, "took", d)
}

func (h *debugHooks) OnSideSwitch(from, to string, layers int) {
	h.logger.Debug("switched side", "from", from, "to", to, "layers", layers)
}

func (h *debugHooks) OnRecompute(objects int, d time.Duration) {
	h.logger.Debug("priced scene", "objects", objects, "took", d)
}

func (h *debugHooks) OnPreviewStart(_ context.Context, side string, offscreen bool) {
	h.logger.Debug("rendering preview", "side", side, "offscreen", offscreen)
}

func (h *debugHooks) OnPreviewComplete(_ context.Context, side string, bytes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("preview failed", "side", side, "err", err)
		return
	}
	h.logger.Debug("rendered preview", "side", side, "size", formatBytes(int64(bytes)), "took", d)
}

func (h *debugHooks) OnCacheHit(_ context.Context, kind string) {
	h.logger.Debug("cache hit", "kind", kind)
}

func (h *debugHooks) OnCacheMiss(_ context.Context, kind string) {
	h.logger.Debug("cache miss", "kind", kind)
}

func (h *debugHooks) OnCacheSet(_ context.Context, kind string, size int) {
	h.logger.Debug("cache set", "kind", kind, "size", formatBytes(int64(size)))
}

var (
	_ observability.SyncHooks    = (*debugHooks)(nil)
	_ observability.PricingHooks = (*debugHooks)(nil)
	_ observability.RenderHooks  = (*debugHooks)(nil)
	_ observability.CacheHooks   = (*debugHooks)(nil)
)
