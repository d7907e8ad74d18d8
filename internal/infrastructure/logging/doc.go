// Package logging provides structured logging for Lumen Bridge.
//
// It wraps log/slog to give every component the same output shape:
// JSON for production, text for development, with default service and
// version fields attached to every entry.
//
// Configuration comes from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log broker credentials or full untrusted payloads at info level.
package logging
