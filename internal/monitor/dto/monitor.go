package dto

import "time"

// RunOptions control the monitor loop. A zero Interval uses the default; a
// zero MaxIterations runs until cancelled.
type RunOptions struct {
	Interval      time.Duration
	MaxIterations int
}

// CycleResult summarizes one monitor cycle.
type CycleResult struct {
	// Checked is the number of active alerts that had a price this cycle.
	Checked int
	Fired   int
	// Skipped counts active alerts whose ticker could not be priced.
	Skipped       int
	FailedTickers []string
	FiredIDs      []string
}
