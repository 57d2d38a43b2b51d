// Package mif decodes Memory Initialization Files.
//
// A MIF text assigns binary values to addresses, one assignment per line:
//
//	12 : 0000000001000001
//	[16..31] : 0000000000000000
//
// The first form assigns a single address; the second assigns the same value
// to every address of an inclusive range. Lines that do not look like an
// assignment (headers such as WIDTH=16; or CONTENT BEGIN, comments, blank
// lines) are ignored. Later assignments to an address replace earlier ones.
package mif
