// Package interp runs batches of tagged operation descriptors.
//
// A batch is an Array of Objects, each selecting its variant through the
// "operator" member:
//
//	[{"operator":"print","value":"a"},{"operator":"print","value":"b"}]
//
// Descriptors are decoded and executed strictly in index order. The first
// descriptor whose operator is unknown or disabled stops the batch with an
// UnsupportedOperatorError. Effects of earlier descriptors are not rolled
// back.
package interp
