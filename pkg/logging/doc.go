// Package logging provides structured, subsystem-tagged logging for habitat,
// built on Go's standard slog package.
//
// All log entries carry a subsystem identifier so that output from the
// long-running control loops (Orchestrator, Monitor, Scaler, Reaper) can be
// filtered independently:
//
//	logging.Init(logging.LevelInfo, os.Stdout)
//	logging.Info("Orchestrator", "environment %s is ready", id)
//	logging.Error("Reaper", err, "sweep failed")
//
// Level filtering happens at the handler, so formatting work is skipped for
// suppressed entries. The package is safe for concurrent use from any number
// of goroutines.
package logging
