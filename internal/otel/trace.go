package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled turns on per-block and per-item debug events.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("MARKETPULSE_TRACE") != "")
}

// TraceEnabled reports whether MARKETPULSE_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTraceEnabled overrides the trace flag (used by --trace and tests).
func SetTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
