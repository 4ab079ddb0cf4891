// Package log is ddmonitor's structured logging facade.
//
// # Overview
//
// A small Logger interface with leveled methods and a Field type for
// structured context. Records are routed through log/slog using a bridge
// handler that feeds our own formatter and output pipeline, so output looks
// the same whether it comes from our code or from libraries that log through
// the standard library.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("ledger"))
//	l.Info("transaction committed", log.Uint64("slot", 42))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config (level, text or JSON
// format, console/file/null outputs, redacted keys, sampling).
//
// # Interop
//
// RedirectStdLog sends the standard library's log package (used by Pebble)
// through a Logger.
package log
