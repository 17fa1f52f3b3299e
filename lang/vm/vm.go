// Package vm implements the stack-based bytecode interpreter: the
// call-frame stack, the value stack, the globals table, upvalue
// capture/closing, and the class/method/bound-method call protocol. It
// drives the same Heap the compiler allocated into, so objects reachable
// from a Function's constant pool survive into execution untouched.
package vm

import (
	"context"
	"fmt"
	"io"

	"github.com/dolthub/swiss"

	"github.com/mna/glox/internal/config"
	"github.com/mna/glox/lang/chunk"
	"github.com/mna/glox/lang/compiler"
	"github.com/mna/glox/lang/heap"
	"github.com/mna/glox/lang/object"
	"github.com/mna/glox/lang/value"
)

// callFrame is one active call's bookkeeping: the closure being run, the
// instruction pointer into its chunk, and the base stack slot its locals
// start at. Frames live in a fixed-size array (never reallocated) so a
// cached *callFrame stays valid across pushes/pops that only move
// frameCount.
type callFrame struct {
	closure *object.Closure
	ip      int
	base    int
}

// VM is one instance of the interpreter: its own heap, value stack, call
// frames and globals table, independent of any other VM in the process.
type VM struct {
	heap   *heap.Heap
	cfg    config.Config
	stdout io.Writer

	stack      []value.Value
	frames     []callFrame
	frameCount int

	globals      *swiss.Map[string, value.Value]
	openUpvalues *object.Upvalue // head of the intrusive list, sorted by descending StackIndex

	initString *object.String
}

// New returns a VM configured by cfg, printing OP_PRINT output to stdout.
func New(cfg config.Config, stdout io.Writer) *VM {
	h := heap.New(cfg.GCInitialBytes, cfg.GCGrowthFactor)
	h.StressGC = cfg.StressGC

	vm := &VM{
		heap:    h,
		cfg:     cfg,
		stdout:  stdout,
		stack:   make([]value.Value, 0, cfg.InitialStackSize),
		frames:  make([]callFrame, cfg.MaxCallFrames),
		globals: swiss.NewMap[string, value.Value](64),
	}
	vm.initString = h.InternString("init")
	vm.defineNatives()
	return vm
}

// Interpret compiles source and runs it to completion, or until ctx is
// cancelled. A compile error is returned as a compiler.ErrorList; a
// failure during execution is returned as a *RuntimeError.
func (vm *VM) Interpret(ctx context.Context, source string) error {
	fn, err := compiler.Compile(vm.heap, source)
	if err != nil {
		return err
	}
	if vm.cfg.TracePrintCode {
		vm.disassembleAll(fn)
	}

	vm.push(fn)
	closure := vm.heap.NewClosure(fn)
	vm.pop()
	vm.push(closure)
	if err := vm.call(closure, 0); err != nil {
		return err
	}
	return vm.run(ctx)
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v
}

func (vm *VM) peek(distance int) value.Value { return vm.stack[len(vm.stack)-1-distance] }

// markRoots enumerates every VM-owned GC root: the value stack, the active
// call frames' closures, the globals table's values, the open-upvalue
// list, and the "init" string the call protocol holds onto directly.
// Compile-time allocation is never collected against (see DESIGN.md), so
// there is no compiler chain to root here; by the time run loops, the
// script Function and everything it transitively references is already
// reachable from the stack/frames above.
func (vm *VM) markRoots(mark heap.MarkFunc) {
	for _, v := range vm.stack {
		mark(v)
	}
	for i := 0; i < vm.frameCount; i++ {
		mark(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		mark(uv)
	}
	it := vm.globals.Iter()
	for it.Next() {
		_, v := it.Pair()
		mark(v)
	}
	mark(vm.initString)
}

// run is the dispatch loop: it decodes and executes one instruction per
// iteration from the innermost active frame until the outermost frame
// returns, ctx is cancelled, or a runtime error occurs.
func (vm *VM) run(ctx context.Context) error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		vm.heap.CollectIfNeeded(vm.markRoots)

		if vm.cfg.TraceExecution {
			vm.traceInstruction(frame)
		}

		code := frame.closure.Function.Chunk.Code
		op := chunk.OpCode(code[frame.ip])
		frame.ip++

		switch op {
		case chunk.OpConstant:
			idx := vm.readByte(frame)
			vm.push(frame.closure.Function.Chunk.Constants[idx])

		case chunk.OpNil:
			vm.push(value.NilValue)

		case chunk.OpTrue:
			vm.push(value.Bool(true))

		case chunk.OpFalse:
			vm.push(value.Bool(false))

		case chunk.OpPop:
			vm.pop()

		case chunk.OpGetLocal:
			slot := vm.readByte(frame)
			vm.push(vm.stack[frame.base+int(slot)])

		case chunk.OpSetLocal:
			slot := vm.readByte(frame)
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case chunk.OpGetGlobal:
			name := vm.readConstantString(frame)
			v, ok := vm.globals.Get(name.Chars)
			if !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)

		case chunk.OpDefineGlobal:
			name := vm.readConstantString(frame)
			vm.globals.Put(name.Chars, vm.pop())

		case chunk.OpSetGlobal:
			name := vm.readConstantString(frame)
			if _, ok := vm.globals.Get(name.Chars); !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			vm.globals.Put(name.Chars, vm.peek(0))

		case chunk.OpGetUpvalue:
			idx := vm.readByte(frame)
			vm.push(frame.closure.Upvalues[idx].Get(vm.stack))

		case chunk.OpSetUpvalue:
			idx := vm.readByte(frame)
			frame.closure.Upvalues[idx].Set(vm.stack, vm.peek(0))

		case chunk.OpGetProperty:
			name := vm.readConstantString(frame)
			inst, ok := vm.peek(0).(*object.Instance)
			if !ok {
				return vm.runtimeError(frame, "Only instances have properties.")
			}
			if fv, ok := inst.Fields.Get(name.Chars); ok {
				vm.pop()
				vm.push(fv)
				break
			}
			if err := vm.bindMethod(frame, inst.Class, name.Chars); err != nil {
				return err
			}

		case chunk.OpSetProperty:
			name := vm.readConstantString(frame)
			inst, ok := vm.peek(1).(*object.Instance)
			if !ok {
				return vm.runtimeError(frame, "Only instances have fields.")
			}
			inst.Fields.Put(name.Chars, vm.peek(0))
			v := vm.pop()
			vm.pop()
			vm.push(v)

		case chunk.OpGetSuper:
			name := vm.readConstantString(frame)
			superclass := vm.pop().(*object.Class)
			if err := vm.bindMethod(frame, superclass, name.Chars); err != nil {
				return err
			}

		case chunk.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(valuesEqual(a, b)))

		case chunk.OpGreater:
			if err := vm.binaryCompare(frame, func(a, b float64) bool { return a > b }); err != nil {
				return err
			}

		case chunk.OpLess:
			if err := vm.binaryCompare(frame, func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case chunk.OpAdd:
			if err := vm.add(frame); err != nil {
				return err
			}

		case chunk.OpSubtract:
			if err := vm.binaryArith(frame, func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}

		case chunk.OpMultiply:
			if err := vm.binaryArith(frame, func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}

		case chunk.OpDivide:
			if err := vm.binaryArith(frame, func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}

		case chunk.OpNot:
			vm.push(value.Bool(!value.Truthy(vm.pop())))

		case chunk.OpNegate:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				return vm.runtimeError(frame, "Operand must be a number.")
			}
			vm.pop()
			vm.push(-n)

		case chunk.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case chunk.OpJump:
			off := vm.readShort(frame)
			frame.ip += int(off)

		case chunk.OpJumpIfFalse:
			off := vm.readShort(frame)
			if !value.Truthy(vm.peek(0)) {
				frame.ip += int(off)
			}

		case chunk.OpLoop:
			off := vm.readShort(frame)
			frame.ip -= int(off)

		case chunk.OpCall:
			argc := int(vm.readByte(frame))
			if err := vm.callValue(frame, vm.peek(argc), argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpInvoke:
			name := vm.readConstantString(frame)
			argc := int(vm.readByte(frame))
			if err := vm.invoke(frame, name.Chars, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpSuperInvoke:
			name := vm.readConstantString(frame)
			argc := int(vm.readByte(frame))
			superclass := vm.pop().(*object.Class)
			if err := vm.invokeFromClass(frame, superclass, name.Chars, argc); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpClosure:
			idx := vm.readByte(frame)
			fn := frame.closure.Function.Chunk.Constants[idx].(*object.Function)
			closure := vm.heap.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := vm.readByte(frame)
				index := vm.readByte(frame)
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(closure)

		case chunk.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case chunk.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop() // the script/function closure itself
				return nil
			}
			vm.stack = vm.stack[:frame.base]
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		case chunk.OpClass:
			name := vm.readConstantString(frame)
			vm.push(vm.heap.NewClass(name))

		case chunk.OpInherit:
			superclass, ok := vm.peek(1).(*object.Class)
			if !ok {
				return vm.runtimeError(frame, "Superclass must be a class.")
			}
			subclass := vm.peek(0).(*object.Class)
			subclass.Superclass = superclass
			it := superclass.Methods.Iter()
			for it.Next() {
				k, m := it.Pair()
				subclass.Methods.Put(k, m)
			}
			vm.pop() // the subclass; the superclass remains as the "super" local

		case chunk.OpMethod:
			name := vm.readConstantString(frame)
			method := vm.pop().(*object.Closure)
			class := vm.peek(0).(*object.Class)
			class.Methods.Put(name.Chars, method)

		default:
			return vm.runtimeError(frame, "Unknown opcode %d.", op)
		}
	}
}

func (vm *VM) readByte(frame *callFrame) byte {
	b := frame.closure.Function.Chunk.Code[frame.ip]
	frame.ip++
	return b
}

func (vm *VM) readShort(frame *callFrame) uint16 {
	code := frame.closure.Function.Chunk.Code
	hi, lo := code[frame.ip], code[frame.ip+1]
	frame.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstantString(frame *callFrame) *object.String {
	idx := vm.readByte(frame)
	return frame.closure.Function.Chunk.Constants[idx].(*object.String)
}

func valuesEqual(a, b value.Value) bool {
	switch av := a.(type) {
	case value.Nil:
		_, ok := b.(value.Nil)
		return ok
	case value.Bool:
		bv, ok := b.(value.Bool)
		return ok && av == bv
	case value.Number:
		bv, ok := b.(value.Number)
		return ok && av == bv
	default:
		// Every heap object variant is reference-typed and interned where
		// content equality matters (strings), so dynamic-type-then-pointer
		// interface equality is exactly language equality here.
		return a == b
	}
}

func (vm *VM) binaryCompare(frame *callFrame, cmp func(a, b float64) bool) error {
	bv, bok := vm.peek(0).(value.Number)
	av, aok := vm.peek(1).(value.Number)
	if !aok || !bok {
		return vm.runtimeError(frame, "Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	vm.push(value.Bool(cmp(float64(av), float64(bv))))
	return nil
}

func (vm *VM) binaryArith(frame *callFrame, op func(a, b float64) float64) error {
	bv, bok := vm.peek(0).(value.Number)
	av, aok := vm.peek(1).(value.Number)
	if !aok || !bok {
		return vm.runtimeError(frame, "Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	vm.push(value.Number(op(float64(av), float64(bv))))
	return nil
}

func (vm *VM) add(frame *callFrame) error {
	switch a := vm.peek(1).(type) {
	case value.Number:
		b, ok := vm.peek(0).(value.Number)
		if !ok {
			return vm.runtimeError(frame, "Operands must be two numbers or two strings.")
		}
		vm.pop()
		vm.pop()
		vm.push(a + b)
		return nil

	case *object.String:
		b, ok := vm.peek(0).(*object.String)
		if !ok {
			return vm.runtimeError(frame, "Operands must be two numbers or two strings.")
		}
		result := vm.heap.Concat(a, b)
		vm.pop()
		vm.pop()
		vm.push(result)
		return nil

	default:
		return vm.runtimeError(frame, "Operands must be two numbers or two strings.")
	}
}
