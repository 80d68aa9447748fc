package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mindmap/pkg/observability"
)

// newLogger creates a logger writing to w at the given level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs the completion of an operation with its elapsed time.
// It is not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to the millisecond,
// e.g. "Exported 3 files (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// logHooks reports editor and cache events to a logger at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnLayoutComplete(mapID string, nodes, warnings int, d time.Duration) {
	h.logger.Debug("Layout", "map", mapID, "nodes", nodes, "warnings", warnings, "duration", d)
}

func (h logHooks) OnSaveComplete(_ context.Context, mapID string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("Save failed", "map", mapID, "duration", d, "err", err)
		return
	}
	h.logger.Debug("Saved", "map", mapID, "duration", d)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("Cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("Cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("Cache set", "type", keyType, "bytes", size)
}

// instrument routes editor and cache events to the CLI logger.
func (c *CLI) instrument() {
	h := logHooks{logger: c.Logger}
	observability.SetEditorHooks(h)
	observability.SetCacheHooks(h)
}
