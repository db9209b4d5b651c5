// Package logging provides structured logging for the Insteon message layer.
//
// This package wraps a zap logger with package-level convenience functions.
// Until Initialize is called every function is a no-op, so library code can
// log freely without producing output in CLI commands or tests.
//
// # Log Levels
//
//   - Debug: raw bytes, decoded messages, framing recovery, dedup decisions
//   - Info: normal operations
//   - Warn: input truncation, skipped or overwritten message definitions
//   - Error: failures that abort a command
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the INSTEON_LOG_LEVEL environment variable.
// Output goes to stderr so decoded messages on stdout stay machine-readable.
//
// # Specialized Logging
//
//	logging.LogRawBytes("Data received", chunk)
//	logging.LogMessage("received", msg.Name(), msg.Bytes())
//
// Both skip formatting entirely unless debug logging is enabled.
package logging
