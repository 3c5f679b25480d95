package cli

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gauzecut/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Searched 24 orderings (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// =============================================================================
// Observability Hooks
// =============================================================================

// logHooks reports search and cache events at debug level. Cache events are
// counted and summarised when a search completes.
type logHooks struct {
	logger *log.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func registerLogHooks(l *log.Logger) *logHooks {
	h := &logHooks{logger: l}
	observability.SetSearchHooks(h)
	observability.SetCacheHooks(h)
	return h
}

func (h *logHooks) OnSearchStart(_ context.Context, candidates, budget int) {
	h.logger.Debug("search", "candidates", candidates, "budget", budget)
}

func (h *logHooks) OnTrialComplete(_ context.Context, index int, score float64, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("trial", "index", index, "score", score, "error", err)
		return
	}
	h.logger.Debug("trial", "index", index, "score", score, "duration", d.Round(time.Microsecond))
}

func (h *logHooks) OnSearchComplete(_ context.Context, trials int, best, worst float64, d time.Duration, err error) {
	h.logger.Debug("search done",
		"trials", trials,
		"best", best,
		"worst", worst,
		"cache_hits", h.hits.Load(),
		"cache_misses", h.misses.Load(),
		"duration", d.Round(time.Millisecond),
		"error", err)
}

func (h *logHooks) OnCacheHit(context.Context, string)  { h.hits.Add(1) }
func (h *logHooks) OnCacheMiss(context.Context, string) { h.misses.Add(1) }

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cached", "type", keyType, "bytes", size)
}
