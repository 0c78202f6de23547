// Package compiler turns a directory of CUE files into segment definitions.
//
// A score directory is one CUE instance. Its top-level fields are unified
// with an embedded schema (schema.cue) so that shape errors such as a
// malformed time signature or an unknown field are reported by CUE with
// source positions. Checks CUE cannot express (command types, measure
// references, duplicate manifest keys) are done in Go and reported as
// *CompileError with the position of the offending value.
//
// Uses the CUE Go API directly (cue/load, cuecontext), never the cue CLI.
package compiler
