// Package log provides calhub's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Entries flow through a pluggable
// Formatter (text or JSON) to one or more Outputs.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("hub"))
//	l.Info("client connected", log.Int("online", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config with a level
// and format. To capture standard library logs (e.g. Pebble's), use
// RedirectStdLog.
package log
