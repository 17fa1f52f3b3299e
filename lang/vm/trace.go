package vm

import (
	"fmt"

	"github.com/mna/glox/lang/chunk"
	"github.com/mna/glox/lang/object"
)

// disassembleAll dumps fn and every nested function reachable from its
// constant pool, so TracePrintCode shows every function body compiled from
// one source file in one pass.
func (vm *VM) disassembleAll(fn *object.Function) {
	object.DisassembleFunction(vm.stdout, fn)
}

// traceInstruction prints the current stack contents and the instruction
// about to execute, gated by config.Config.TraceExecution. It is a minimal
// analogue of clox's DEBUG_TRACE_EXECUTION dump, useful for debugging the
// compiler's output by eye.
func (vm *VM) traceInstruction(frame *callFrame) {
	fmt.Fprint(vm.stdout, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.stdout, "[ %s ]", v.String())
	}
	fmt.Fprintln(vm.stdout)

	code := frame.closure.Function.Chunk.Code
	op := chunk.OpCode(code[frame.ip])
	line := frame.closure.Function.Chunk.LineAt(frame.ip)
	fmt.Fprintf(vm.stdout, "%04d line %4d %s\n", frame.ip, line, op)
}
