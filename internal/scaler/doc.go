// Package scaler decides scaling direction from observed metrics and a
// template's trigger expressions.
//
// Triggers use a small expression grammar, one trigger per string:
//
//	metric op threshold[%]
//
// e.g. "cpu_percent > 80%" or "request_rate >= 100". The metric is a bare
// identifier looked up in the latest health snapshot; the optional percent
// sign is cosmetic and stripped. Scale-up wins as soon as any trigger fires;
// scale-down requires every observed metric to sit below half its threshold.
package scaler
