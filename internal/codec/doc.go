// Package codec maps between ir.Value trees and typed Go records.
//
// Decode walks a Go type with reflection and pulls each field out of the
// matching Object member. Encode does the reverse. Tagged unions (records
// whose variant is selected by a discriminant field) are handled by Union.
//
// Field matching:
//  1. `json:"name"` tag, exact
//  2. Go field name, case-insensitive
//
// Fields are required unless tagged omitempty or declared as a pointer.
// Unknown members in the input are ignored.
//
// Decode is atomic: a failed decode never hands back a partly filled record.
// Every shape failure is a *SchemaError carrying the path to the bad value.
package codec
