// Package monitor runs one supervised health worker per READY environment.
//
// Each worker ticks on a fixed interval, probes the environment's backend,
// writes the aggregated snapshot onto the record, and feeds the observed
// metrics to the auto-scaling hook. Probe failures degrade the reported
// health but never move the lifecycle state; a panicking worker is the one
// exception and flips its record to ERROR before exiting.
package monitor
