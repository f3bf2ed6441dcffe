// Package orchestrator is the lifecycle manager: the single entry point for
// creating, inspecting, scaling, stopping, and deleting environments.
//
// Creation is asynchronous. CreateEnvironment validates, admits, and registers
// a PENDING record, then returns its id immediately while a background task
// drives the backend. Everything observable afterwards flows through the
// record's state machine; subscribers receive every transition as an event.
package orchestrator
