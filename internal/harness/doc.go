// Package harness runs segment scenarios for conformance testing.
//
// A scenario is a YAML file listing segments in order. Each segment is built
// with segment.Maker against a fresh in-memory metadata store, so segment n
// receives exactly the snapshot segment n-1 persisted. A segment may be
// expected to fail with an error code; a failed run writes nothing and the
// next listed segment is built with the same number.
//
// Assertions check the outcome:
//
//   - status: classification (and optionally tag) of an indicator at a
//     context, leaf index and prototype
//   - no_indicator: no indicator of a prototype at that leaf
//   - momento: a persisted momento, or its absence
//   - metadata: a scalar field of the persisted snapshot
//   - lilypond: the rendered segment contains a string
//
// Scenarios can also be compared against a golden report
// (testdata/golden/<name>.golden) listing every classified indicator and
// momento. Regenerate with:
//
//	go test ./internal/harness -update
package harness
