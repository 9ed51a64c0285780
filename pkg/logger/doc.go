// Package logger provides structured logging for the analytics client.
//
// It wraps zerolog behind a small interface with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional append-mode file output
// - A process-wide instance via Initialize/GetLogger
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "info", Pretty: true}
//	if err := logger.Initialize(cfg); err != nil { ... }
//
//	log := logger.GetLogger().WithField("component", "sampler")
//	log.InfoWithFields("sample complete", map[string]interface{}{
//	    "profile_lookups": 18,
//	    "cache_hits":      2,
//	})
//
// Tests use NewTestLogger, which captures entries for assertions
// instead of writing them anywhere.
package logger
