// Package log provides a simple, leveled logging interface used by the
// interpreter's event loop and input forwarding and by signature
// validation.
//
// # Log Levels
//
// The package supports five log levels, in order of increasing severity:
//
//   - LogLevelDebug: Detailed debugging information for development
//   - LogLevelInfo: General informational messages about normal operation
//   - LogLevelWarn: Warning messages for potentially problematic situations
//   - LogLevelError: Error messages for failures that need attention
//   - LogLevelNone: Disables all logging output
//
// # Logger Interface
//
// The Logger interface provides four main logging methods: Debug, Info, Warn
// and Error. Three implementations are provided out of the box:
// DefaultLogger, backed by the standard library's log package, GologLogger,
// a thin wrapper around github.com/kataras/golog for callers who already use
// it elsewhere in their process, and NoOpLogger, which discards everything.
//
// # Example Usage
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	logger.Info("transaction %s started", txID)
//	logger.Debug("dispatching event: %v", evt)
//	logger.Warn("port buffer near capacity: %d", depth)
//	logger.Error("handler failed: %v", err)
//
// ## golog Integration
//
//	glogger := golog.New()
//	glogger.SetPrefix("[myapp] ")
//	logger := log.NewGologLogger(glogger)
//	logger.SetLevel(log.LogLevelDebug)
//
// # Thread Safety
//
// DefaultLogger is safe for concurrent use; the underlying standard library
// log.Logger serializes writes. The event loop itself is single-threaded, so
// only the goroutines that forward handler output and invocation input log
// concurrently with it.
package log
