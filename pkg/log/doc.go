// Package log provides structured diagnostic logging for roomlink.
//
// This package defines the Logger interface and Event types for capturing
// connection events at the transport, session and supervisor layers.
// It is separate from operational logging (slog): diagnostic capture provides
// a complete machine-readable trace of every transition and retry decision.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/roomlink/client.rlog")
//
//	// Both: NewMultiLogger fans out to every sink
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
//   - Transport: payload frames in and out (FrameEvent), ping/pong/close
//     control frames (ControlMsgEvent)
//   - Session: session lifecycle (StateChangeEvent)
//   - Supervisor: status transitions (StateChangeEvent), retry scheduling
//     (RetryEvent), reachability transitions (ReachabilityEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with the .rlog extension.
// The roomlink-log tool views and summarizes them.
package log
