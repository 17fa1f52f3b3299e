// Package chunk implements the per-function bytecode container: a flat byte
// stream, its constant pool, and a run-length encoded line table. Every
// compiled Function (see package object) owns exactly one Chunk.
package chunk

import "github.com/mna/glox/lang/value"

// Chunk is a growable byte sequence plus a parallel constant pool and
// run-length-encoded source line table.
type Chunk struct {
	Code      []byte
	Constants []value.Value

	// lines and lineStarts are parallel run-length-encoded sequences: lines[i]
	// is the source line in effect starting at code offset lineStarts[i]. A
	// new pair is appended only when the line actually changes.
	lines      []int
	lineStarts []int
}

// Write appends a single byte to the code stream, recording line for that
// offset, and returns the offset the byte was written at.
func (c *Chunk) Write(b byte, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, b)
	if len(c.lines) == 0 || c.lines[len(c.lines)-1] != line {
		c.lines = append(c.lines, line)
		c.lineStarts = append(c.lineStarts, offset)
	}
	return offset
}

// AddConstant appends v to the constant pool and returns its index. Callers
// (the compiler) are responsible for deduplication; Chunk itself does not
// dedupe.
func (c *Chunk) AddConstant(v value.Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// LineAt returns the source line in effect at the given code offset, found
// by a binary search over the run-length table.
func (c *Chunk) LineAt(offset int) int {
	if len(c.lineStarts) == 0 {
		return 0
	}
	lo, hi := 0, len(c.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return c.lines[lo]
}
