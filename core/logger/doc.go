// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) for a batch synchronization process.
//
// # Run Correlation
//
// Every invocation of a sync command is one "run". WithRunID attaches a
// generated run_id field to the logger, ensuring that all log lines produced
// by a single run can be correlated after the fact.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log = logger.WithRunID(log)
//	log.Info("symbol sync started")
package logger
