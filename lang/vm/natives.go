package vm

import (
	"time"

	"github.com/mna/glox/lang/object"
	"github.com/mna/glox/lang/value"
)

var processStart = time.Now()

// defineNatives installs the VM's built-in functions into globals, the way
// user code defines any other global: by name, looked up with
// OP_GET_GLOBAL like anything else.
func (vm *VM) defineNatives() {
	vm.defineNative("clock", nativeClock)
}

func (vm *VM) defineNative(name string, fn object.NativeFunc) {
	native := vm.heap.NewNative(name, fn)
	vm.globals.Put(name, native)
}

// nativeClock returns the number of seconds elapsed since the process started,
// standing in for clox's process-clock reading since Go has no portable
// stdlib equivalent of C's clock(); wall-clock elapsed time serves the same
// purpose for the language's benchmark scripts.
func nativeClock(args []value.Value) (value.Value, error) {
	return value.Number(time.Since(processStart).Seconds()), nil
}
