// Package ir provides the foundation types shared by every segmaker package.
//
// This package contains type definitions and their serialization only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Momento values are restricted to strings and integers (IRString, IRInt)
//     so that a Metadata snapshot round-trips losslessly through the store.
//   - Prototype names are a closed enum with a fixed bidirectional mapping;
//     an unknown name is a configuration error, never silently ignored.
//   - All JSON tags use snake_case.
//   - Metadata snapshots are hashed from RFC 8785 canonical JSON so that two
//     runs producing the same persistent state produce the same hash.
package ir
