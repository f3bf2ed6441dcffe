// Package environment owns the authoritative record of each managed
// environment and the state machine governing its lifecycle.
//
// # Records
//
// A Record is the single source of truth for one environment. All mutation
// goes through methods that hold the record's own lock, so a health monitor
// tick and a concurrent scale operation can never interleave partial updates.
// No registry-wide lock is ever held across a backend call: the lifecycle
// manager marks the record (PROVISIONING, STOPPING, ...) first and performs
// the blocking call with no locks held.
//
// # State machine
//
//	PENDING → PROVISIONING → READY ⇄ SCALING/UPDATING → STOPPING → STOPPED
//
// Any non-terminal state may move to ERROR. Transitions outside this graph
// return api.InvalidStateError. Endpoints are observable only while the
// record is READY.
//
// # Store
//
// Store is the narrow registry interface (get/put/delete/list) behind which
// the orchestration logic sits. The default implementation is an in-memory
// concurrent map; it loses all records on process restart. A durable backing
// can be substituted without touching orchestration code.
package environment
