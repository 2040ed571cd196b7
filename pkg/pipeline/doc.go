// Package pipeline provides a staged executor for scrape-and-transform jobs.
//
// A pipeline threads a single data value through an ordered list of steps.
// The executor never inspects the shape of the value except where a step
// variant requires a sequence: batching (PipeSliced), per-item mapping
// (PipeEach, PipeEachFiltered) and sorting (Sort) all reflect over the
// current value and fail with ErrTypeMismatch when it is not a slice.
//
// Steps run strictly in registration order, one at a time. A step may
// parallelize work internally (for example, concurrent fetches within one
// batch) but must resolve all of it before returning; the executor itself
// never runs two steps or two batches concurrently.
//
// # Example
//
//	result, err := pipeline.Start(fetchListing, jobState).
//	    PipeSliced(resolveDetails, 10).
//	    PipeEachFiltered(dropBroken).
//	    Sort(byTitle).
//	    SaveAs(sink, "listing").
//	    Run(ctx)
package pipeline
