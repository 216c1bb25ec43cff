package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSyncHooks{}
	s.OnOutboundSync(3, []string{"front"}, time.Millisecond)
	s.OnSideSwitch("front", "back", 2)

	p := NoopPricingHooks{}
	p.OnRecompute(4, time.Millisecond)

	r := NoopRenderHooks{}
	r.OnPreviewStart(ctx, "back", true)
	r.OnPreviewComplete(ctx, "back", 2048, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "resource")
	c.OnCacheMiss(ctx, "resource")
	c.OnCacheSet(ctx, "resource", 1024)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Sync() should return NoopSyncHooks by default")
	}
	if _, ok := Pricing().(NoopPricingHooks); !ok {
		t.Error("Pricing() should return NoopPricingHooks by default")
	}
	if _, ok := Render().(NoopRenderHooks); !ok {
		t.Error("Render() should return NoopRenderHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	custom := &testSyncHooks{}
	SetSyncHooks(custom)
	if Sync() != custom {
		t.Error("SetSyncHooks should set custom hooks")
	}

	// nil is ignored
	SetSyncHooks(nil)
	if Sync() != custom {
		t.Error("SetSyncHooks(nil) should keep the current hooks")
	}

	Sync().OnSideSwitch("front", "back", 1)
	if custom.switches != 1 {
		t.Errorf("switches = %d, want 1", custom.switches)
	}

	Reset()
	if _, ok := Sync().(NoopSyncHooks); !ok {
		t.Error("Reset should restore NoopSyncHooks")
	}
}

type testSyncHooks struct {
	NoopSyncHooks
	switches int
}

func (h *testSyncHooks) OnSideSwitch(string, string, int) { h.switches++ }
