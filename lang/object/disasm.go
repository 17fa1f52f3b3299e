package object

import "io"

// DisassembleFunction writes fn's disassembled chunk to w, then recurses
// into every nested Function reachable from its constant pool, depth
// first. Shared by the VM's TracePrintCode dump and the `glox disasm`
// command so both print identically.
func DisassembleFunction(w io.Writer, fn *Function) {
	name := "<script>"
	if fn.Name != nil {
		name = fn.Name.Chars
	}
	fn.Chunk.Disassemble(w, name)
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.(*Function); ok {
			DisassembleFunction(w, nested)
		}
	}
}
