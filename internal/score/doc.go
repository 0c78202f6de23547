// Package score is the notation tree a segment run builds and annotates.
//
// A Score is a tree of named Contexts. Bottom-level contexts (voices and the
// global skip track) hold Leaves in time order. Persistent indicators are
// attached to leaves through Wrappers, which remember the home context the
// indicator governs, its classification status, and the tagged emissions the
// renderer prints around it.
//
// Offsets and durations are exact rationals (math/big). Two wrappers of the
// same kind in the same home context are ordered by the offsets of their
// leaves; this is the only notion of "before" the effective-indicator queries
// use.
package score
