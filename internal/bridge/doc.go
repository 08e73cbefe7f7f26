// Package bridge is the native boundary: the statically enumerated set of
// operations the host can call, and the error channel every one of them
// goes through.
//
// Control flow for a synchronous entry point:
//  1. The host adapter converts its arguments to ir.Value
//  2. The Module method decodes them into a typed request (package codec)
//  3. Business logic runs
//  4. The typed response is encoded back to ir.Value
//  5. Any failure on the way, including a panic, becomes a *HostError
//
// Asynchronous entry points (ScheduleTask, Emitter.Poll) return at once and
// deliver their result later through the engine's Dispatcher.
//
// Key constraints:
//   - No failure crosses the boundary unconverted; Catch recovers panics
//   - A HostError carries a single-line message and nothing else the host
//     can inspect
//   - The export table is built once by New; there is no package-level
//     mutable state
package bridge
