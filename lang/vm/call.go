package vm

import (
	"github.com/mna/glox/lang/object"
	"github.com/mna/glox/lang/value"
)

// callValue dispatches a call to whatever is at the top of the "callable"
// position: a Closure, a Class (instantiation), a bound method, or a
// native. argc values plus the callee itself occupy the top argc+1 stack
// slots.
func (vm *VM) callValue(frame *callFrame, callee value.Value, argc int) error {
	switch c := callee.(type) {
	case *object.Closure:
		return vm.call(c, argc)

	case *object.Class:
		inst := vm.heap.NewInstance(c)
		vm.stack[len(vm.stack)-argc-1] = inst
		if initializer, ok := c.FindMethod(vm.initString.Chars); ok {
			return vm.call(initializer, argc)
		}
		if argc != 0 {
			return vm.runtimeError(frame, "Expected 0 arguments but got %d.", argc)
		}
		return nil

	case *object.BoundMethod:
		vm.stack[len(vm.stack)-argc-1] = c.Receiver
		return vm.call(c.Method, argc)

	case *object.Native:
		args := vm.stack[len(vm.stack)-argc:]
		result, err := c.Fn(args)
		if err != nil {
			return vm.runtimeError(frame, "%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		vm.push(result)
		return nil

	default:
		return vm.runtimeError(frame, "Can only call functions and classes.")
	}
}

// call pushes a new frame for closure over the argc arguments already on
// the stack (plus the callee itself, at slot base).
func (vm *VM) call(closure *object.Closure, argc int) error {
	if argc != closure.Function.Arity {
		var frame *callFrame
		if vm.frameCount > 0 {
			frame = &vm.frames[vm.frameCount-1]
		}
		return vm.runtimeError(frame, "Expected %d arguments but got %d.", closure.Function.Arity, argc)
	}
	if vm.frameCount == len(vm.frames) {
		return vm.runtimeError(&vm.frames[vm.frameCount-1], "Stack overflow.")
	}

	vm.frames[vm.frameCount] = callFrame{
		closure: closure,
		ip:      0,
		base:    len(vm.stack) - argc - 1,
	}
	vm.frameCount++
	return nil
}

// invoke is the fused get-property-then-call dispatch for `receiver.name(args)`:
// it avoids materializing a BoundMethod when the receiver's own field table
// doesn't shadow the method.
func (vm *VM) invoke(frame *callFrame, name string, argc int) error {
	receiver := vm.peek(argc)
	inst, ok := receiver.(*object.Instance)
	if !ok {
		return vm.runtimeError(frame, "Only instances have methods.")
	}

	if fv, ok := inst.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argc-1] = fv
		return vm.callValue(frame, fv, argc)
	}
	return vm.invokeFromClass(frame, inst.Class, name, argc)
}

func (vm *VM) invokeFromClass(frame *callFrame, class *object.Class, name string, argc int) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError(frame, "Undefined property '%s'.", name)
	}
	return vm.call(method, argc)
}

func (vm *VM) bindMethod(frame *callFrame, class *object.Class, name string) error {
	method, ok := class.FindMethod(name)
	if !ok {
		return vm.runtimeError(frame, "Undefined property '%s'.", name)
	}
	bound := vm.heap.NewBoundMethod(vm.peek(0), method)
	vm.pop()
	vm.push(bound)
	return nil
}

// captureUpvalue returns the open upvalue for stackIndex, reusing one
// already captured by a sibling closure if the intrusive list (kept sorted
// by descending StackIndex) already has it.
func (vm *VM) captureUpvalue(stackIndex int) *object.Upvalue {
	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.StackIndex > stackIndex {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.StackIndex == stackIndex {
		return cur
	}

	created := vm.heap.NewUpvalue(stackIndex)
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above fromStackIndex,
// lifting its value off the stack into its own storage.
func (vm *VM) closeUpvalues(fromStackIndex int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackIndex >= fromStackIndex {
		uv := vm.openUpvalues
		uv.Close(vm.stack)
		vm.openUpvalues = uv.Next
	}
}
