// internal/app/system/timeouts/timeouts.go

// Package timeouts holds the context deadlines used by handlers, the
// membership engine, and background workers.
//
//   - Ping: health checks
//   - Short: single-document reads and best-effort side writes
//   - Medium: list queries and simple updates
//   - Long: transactional engine operations touching several collections
//   - Sweep: one pass of a background worker
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
	DefaultSweep  = 60 * time.Second
)

type setting struct {
	env string
	def time.Duration
	cur time.Duration
}

var (
	mu       sync.RWMutex
	settings = map[string]*setting{
		"ping":   {env: "GUILDHALL_TIMEOUT_PING", def: DefaultPing, cur: DefaultPing},
		"short":  {env: "GUILDHALL_TIMEOUT_SHORT", def: DefaultShort, cur: DefaultShort},
		"medium": {env: "GUILDHALL_TIMEOUT_MEDIUM", def: DefaultMedium, cur: DefaultMedium},
		"long":   {env: "GUILDHALL_TIMEOUT_LONG", def: DefaultLong, cur: DefaultLong},
		"sweep":  {env: "GUILDHALL_TIMEOUT_SWEEP", def: DefaultSweep, cur: DefaultSweep},
	}
)

func get(name string) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return settings[name].cur
}

func Ping() time.Duration   { return get("ping") }
func Short() time.Duration  { return get("short") }
func Medium() time.Duration { return get("medium") }
func Long() time.Duration   { return get("long") }
func Sweep() time.Duration  { return get("sweep") }

// ConfigureFromEnv applies GUILDHALL_TIMEOUT_{PING,SHORT,MEDIUM,LONG,SWEEP}
// overrides, e.g. "500ms" or "2m". Unparseable or non-positive values are
// ignored. It returns how many overrides were applied.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	n := 0
	for _, s := range settings {
		v := os.Getenv(s.env)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			s.cur = d
			n++
		}
	}
	return n
}

func reset() {
	mu.Lock()
	defer mu.Unlock()
	for _, s := range settings {
		s.cur = s.def
	}
}

// WithTimeout is context.WithTimeout whose cancel func logs a warning when
// the deadline was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "approve join request")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
