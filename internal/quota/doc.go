// Package quota enforces admission limits and produces advisory cost and
// usage figures for the fleet.
//
// Admission is checked once, at creation time. An environment that was
// admitted is never evicted by this package even if limits are lowered
// afterwards; the reaper handles reclamation on its own schedule.
package quota
