// Package build drives a bundle build from a loaded manifest to a published
// bundle and build report.
//
// A build moves through a fixed sequence of states:
//
//	Init -> Resolving -> Collecting -> Assembling -> Finalizing -> Succeeded
//
// and can leave any working state for Failed. Transitions are validated; a
// disallowed transition is a programming error and is returned as such.
//
// Library collection runs in parallel. Its results, the destination index
// and the report builder share one coarse lock held by the aggregator. The
// build report is written whether the build succeeds or fails.
package build
