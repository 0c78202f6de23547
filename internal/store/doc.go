// Package store persists segment metadata snapshots in SQLite.
//
// Each segment run of a score writes one snapshot. The snapshot is stored
// twice: as canonical JSON in segments.metadata (with its content hash),
// and exploded into persistent_indicators rows keyed by context and
// prototype. The JSON copy is authoritative; the rows exist for queries
// such as "what clef did Cello_Staff end each segment with".
//
// Writes are atomic. WriteSegment replaces any earlier snapshot for the
// same segment number inside one transaction, so a failed run leaves the
// previous snapshot untouched.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: persistent_indicators rows cascade with their segment
package store
