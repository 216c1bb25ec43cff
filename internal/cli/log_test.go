package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("synced") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("priced side") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("priced side") }, true},
		{"warn at error level", log.ErrorLevel, func(l *log.Logger) { l.Warn("base image missing") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestNotices(t *testing.T) {
	var buf bytes.Buffer
	n := newNotices(newLogger(&buf, log.InfoLevel))

	n.notify(errors.New(errors.ErrCodeResourceLoad, "image %s could not be loaded", "logo.png"))
	n.notify(stderrors.New("disk full"))

	if n.count != 2 {
		t.Errorf("count = %d, want 2", n.count)
	}
	out := buf.String()
	for _, want := range []string{"WARN", "image logo.png could not be loaded", "code=RESOURCE_LOAD_FAILURE", "disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "code=") != 1 {
		t.Errorf("uncoded errors should not log a code:\n%s", out)
	}
}

func TestStopwatch(t *testing.T) {
	var buf bytes.Buffer
	w := newStopwatch(newLogger(&buf, log.InfoLevel))
	first := w.start

	w.done("replayed script", "steps", 4)

	out := buf.String()
	for _, want := range []string{"replayed script", "steps=4", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
	if w.start.Before(first) {
		t.Error("done should restart the clock")
	}
}

func TestDebugHooks(t *testing.T) {
	var buf bytes.Buffer
	registerDebugHooks(newLogger(&buf, log.DebugLevel))
	defer observability.Reset()

	ctx := context.Background()
	observability.Sync().OnOutboundSync(3, nil, time.Millisecond)
	observability.Sync().OnSideSwitch("front", "back", 2)
	observability.Render().OnPreviewComplete(ctx, "back", 2048, time.Millisecond, nil)
	observability.Cache().OnCacheMiss(ctx, "preview")

	out := buf.String()
	if strings.Contains(out, "synced scene") {
		t.Error("a scan that changed nothing should not log")
	}
	for _, want := range []string{"switched side", "to=back", "size=\"2.0 KiB\"", "cache miss", "kind=preview"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
