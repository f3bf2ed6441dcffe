// Package backend defines the provisioning capability contract the
// orchestrator consumes, and the dispatch registry that routes each
// environment kind to its implementation.
//
// The orchestrator never inspects backend-specific detail: base image names,
// package lists, and cloud regions travel opaquely inside the merged
// configuration bag. Adding a new environment kind means implementing the
// Backend interface and registering it; the lifecycle manager does not
// change.
//
// The implementations shipped here simulate their provisioning mechanics
// (endpoint derivation, composition, partial-success policy) rather than
// driving real container or package-manager tooling. Fake provides
// injectable delays and failures for exercising the orchestrator in tests.
package backend
