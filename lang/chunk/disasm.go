package chunk

import (
	"fmt"
	"io"
)

// Disassemble writes a human-readable dump of every instruction in c to w,
// labelled with name (normally the owning Function's name, or "<script>").
// Used by the VM's config.Config.TracePrintCode dump and by the disasm
// command, it is the compile-time counterpart to the VM's per-instruction
// execution trace.
func (c *Chunk) Disassemble(w io.Writer, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = c.disassembleInstruction(w, offset)
	}
}

func (c *Chunk) disassembleInstruction(w io.Writer, offset int) int {
	fmt.Fprintf(w, "%04d %4d ", offset, c.LineAt(offset))

	op := OpCode(c.Code[offset])
	switch op {
	case OpConstant, OpGetLocal, OpSetLocal, OpGetGlobal, OpDefineGlobal,
		OpSetGlobal, OpGetUpvalue, OpSetUpvalue, OpGetProperty, OpSetProperty,
		OpGetSuper, OpCall, OpClass, OpMethod:
		idx := c.Code[offset+1]
		fmt.Fprintf(w, "%-16s %4d\n", op, idx)
		return offset + 2

	case OpInvoke, OpSuperInvoke:
		idx := c.Code[offset+1]
		argc := c.Code[offset+2]
		fmt.Fprintf(w, "%-16s (%d args) %4d\n", op, argc, idx)
		return offset + 3

	case OpJump, OpJumpIfFalse, OpLoop:
		hi, lo := c.Code[offset+1], c.Code[offset+2]
		jump := int(hi)<<8 | int(lo)
		fmt.Fprintf(w, "%-16s %4d\n", op, jump)
		return offset + 3

	case OpClosure:
		idx := c.Code[offset+1]
		fmt.Fprintf(w, "%-16s %4d\n", op, idx)
		next := offset + 2
		if int(idx) < len(c.Constants) {
			if fn, ok := c.Constants[idx].(interface{ UpvalueN() int }); ok {
				for i := 0; i < fn.UpvalueN(); i++ {
					isLocal := c.Code[next]
					index := c.Code[next+1]
					kind := "upvalue"
					if isLocal == 1 {
						kind = "local"
					}
					fmt.Fprintf(w, "%04d      |                     %s %d\n", next, kind, index)
					next += 2
				}
			}
		}
		return next

	default:
		fmt.Fprintln(w, op)
		return offset + 1
	}
}
