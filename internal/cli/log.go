package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/errors"
)

// newLogger creates the CLI logger. Timestamps look like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// notices is an editor notifier that logs every notification at warn level
// with its error code and keeps a count for the end-of-run summary.
type notices struct {
	logger *log.Logger
	count  int
}

func newNotices(l *log.Logger) *notices {
	return &notices{logger: l}
}

// notify implements design.Notifier. It runs on the editor loop, so count
// needs no locking.
func (n *notices) notify(err error) {
	n.count++
	kv := []any{}
	if code := errors.GetCode(err); code != "" {
		kv = append(kv, "code", code)
	}
	n.logger.Warn(errors.UserMessage(err), kv...)
}

// stopwatch logs the completion of a step with its elapsed time as a
// structured field. It is meant for sequential use by one goroutine.
type stopwatch struct {
	logger *log.Logger
	start  time.Time
}

func newStopwatch(l *log.Logger) *stopwatch {
	return &stopwatch{logger: l, start: time.Now()}
}

// done logs msg with kv and the elapsed time, then restarts the clock so
// the next call measures the next step.
func (s *stopwatch) done(msg string, kv ...any) {
	now := time.Now()
	kv = append(kv, "elapsed", now.Sub(s.start).Round(time.Millisecond))
	s.logger.Info(msg, kv...)
	s.start = now
}
