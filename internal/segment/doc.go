// Package segment builds one segment of a score and reconciles its
// persistent indicators with the segment before it.
//
// A run proceeds in fixed phases, each of which finishes before the next
// starts:
//
//  1. build the context tree, global skips and rhythms
//  2. attach template defaults (first segment) or reapply the previous
//     segment's momentos
//  3. run composition commands
//  4. categorize every unclassified persistent indicator
//  5. space, style fermata measures, compute clock times
//  6. collect momentos into the next metadata snapshot
//
// The previous snapshot is an explicit argument and is never mutated. A run
// either returns a complete Result or an error; nothing is persisted on
// failure.
package segment
