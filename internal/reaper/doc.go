// Package reaper garbage-collects abandoned environment records.
//
// A record is reclaimable once it has been idle longer than the configured
// TTL and is not READY. READY environments are never reclaimed regardless of
// idle time; stopping them is a human decision.
package reaper
