// Package testutil provides deterministic helpers shared by package tests:
// a manually pumped dispatcher, sequential IDs and a goroutine-safe buffer.
//
// It imports nothing internal so any package's tests can use it.
package testutil
