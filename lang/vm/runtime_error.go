package vm

import "fmt"

// runtimeError builds a *RuntimeError with a trace line per active frame
// (innermost first), then resets the VM's stack so the caller can run
// another Interpret call cleanly (matters for the REPL, which keeps one VM
// across lines). frame is the frame that detected the failure; it is
// always vm.frames[vm.frameCount-1], so every frame's line is derived the
// same way in the loop below rather than from frame directly.
func (vm *VM) runtimeError(frame *callFrame, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	trace := make([]string, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		// f.ip points just past the instruction that was executing (the
		// innermost frame's failing instruction, or a caller's OP_CALL/
		// OP_INVOKE), so the failing line is always at ip-1.
		ip := f.ip - 1
		if ip < 0 {
			ip = 0
		}
		line := f.closure.Function.Chunk.LineAt(ip)
		name := "script"
		if f.closure.Function.Name != nil {
			name = f.closure.Function.Name.Chars
		}
		trace = append(trace, fmt.Sprintf("[line %d] in %s", line, name))
	}

	vm.resetStack()
	return &RuntimeError{Message: msg, Trace: trace}
}
