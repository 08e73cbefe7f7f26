// Package ir provides the dynamic value model exchanged with the host.
//
// Every value that crosses the native boundary is represented as an ir.Value
// before it is decoded into (or after it is encoded from) a typed Go record.
// The model is closed: Null, Bool, Number, String, Array and Object are the
// only variants, and Value is sealed so no other package can add one.
//
// This package imports nothing internal. All other internal packages build
// on it.
//
// Key constraints:
//   - Value trees are finite and acyclic; they are only built bottom-up
//   - Object preserves insertion order; setting an existing key keeps its slot
//   - Numbers are float64, matching the host's number type
//   - Text edges (Parse/Render) never interpret Value as Go structs
package ir
