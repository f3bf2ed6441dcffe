// Package api defines the shared types and structured error kinds used across
// the habitat orchestrator.
//
// # Purpose
//
// Every other internal package speaks in terms of the types defined here:
// environment templates, lifecycle states, health snapshots, scale directions,
// and resource shapes. Keeping them in one leaf package avoids import cycles
// between the lifecycle manager, the health monitor, the auto-scaler, and the
// provisioning backends.
//
// # Error Handling
//
// The package provides one error type per failure kind the orchestrator can
// surface: NotFoundError, QuotaExceededError, InvalidStateError,
// ScaleInProgressError, ProvisionError and TerminateError. Each has an
// errors.As-based predicate (IsNotFound, IsQuotaExceeded, ...) so callers can
// branch on the kind without string matching:
//
//	if _, err := orch.GetEnvironment(id); api.IsNotFound(err) {
//	    // pick a different environment
//	}
//
// Errors carry enough structured detail (kind plus cause) for a caller to
// decide whether to retry, pick a different template, or give up. The core
// never retries on its own.
package api
