package object

import (
	"fmt"

	"github.com/mna/glox/lang/chunk"
	"github.com/mna/glox/lang/value"
)

// Function is the compiled form of a function body or of a top-level
// script (the latter is a Function of arity 0 with a nil Name). It is the direct
// product of the compiler; every runtime call target is a Closure wrapping
// one.
type Function struct {
	value.Object
	Arity        int
	UpvalueCount int
	Chunk        *chunk.Chunk
	Name         *String // nil for the top-level script
}

var _ value.HeapObject = (*Function)(nil)

func (f *Function) Type() string { return "function" }

// UpvalueN returns the number of upvalue descriptors following this
// Function's OP_CLOSURE constant index, read structurally by the chunk
// package's disassembler (which cannot import object without a cycle).
func (f *Function) UpvalueN() int { return f.UpvalueCount }

func (f *Function) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// UpvalueDesc describes one upvalue captured by a Closure wrapping this
// Function: whether it captures a local slot of the immediately enclosing
// function (Index is a stack slot) or an upvalue of the enclosing function
// (Index is an upvalue index).
type UpvalueDesc struct {
	Index   uint8
	IsLocal bool
}

// Closure is a Function plus its captured Upvalues. Every compiled
// function the VM calls at runtime is wrapped in a Closure, even one with
// no free variables (UpvalueCount == 0).
type Closure struct {
	value.Object
	Function *Function
	Upvalues []*Upvalue
}

var _ value.HeapObject = (*Closure)(nil)

func (c *Closure) Type() string   { return "closure" }
func (c *Closure) String() string { return c.Function.String() }

// Upvalue is an indirection that lets a closure refer to a variable living
// in (open) or having lived in (closed) another frame's stack slot.
//
// The location is a tagged union of {stack index, own value} rather than a
// raw pointer into the value stack (per the design note for
// implementations without pointer arithmetic into a growable slice: the
// VM's value stack is reallocated on growth, which would invalidate a raw
// *Value into it). While open, StackIndex names a slot in the VM's value
// stack, passed explicitly to Get/Set/Close; closing copies that slot's
// value into Closed and marks the upvalue closed, after which it no
// longer depends on the stack at all.
type Upvalue struct {
	value.Object

	StackIndex int
	closed     bool
	Closed     value.Value

	// Next links open upvalues in the VM's intrusive list, kept sorted by
	// descending stack index (deepest first).
	Next *Upvalue
}

var _ value.HeapObject = (*Upvalue)(nil)

func (u *Upvalue) Type() string   { return "upvalue" }
func (u *Upvalue) String() string { return "upvalue" }

// IsClosed reports whether the upvalue has been closed.
func (u *Upvalue) IsClosed() bool { return u.closed }

// Get returns the upvalue's current value: stack[StackIndex] while open, or
// the closed value once closed.
func (u *Upvalue) Get(stack []value.Value) value.Value {
	if u.closed {
		return u.Closed
	}
	return stack[u.StackIndex]
}

// Set assigns the upvalue's current value, in the stack slot while open or
// in its own storage once closed.
func (u *Upvalue) Set(stack []value.Value, v value.Value) {
	if u.closed {
		u.Closed = v
		return
	}
	stack[u.StackIndex] = v
}

// Close lifts the stack slot's current value into the upvalue's own
// storage and marks it closed; further Get/Set calls no longer touch the
// stack.
func (u *Upvalue) Close(stack []value.Value) {
	u.Closed = stack[u.StackIndex]
	u.closed = true
}

// NativeFunc is the signature of a built-in function implemented in Go.
type NativeFunc func(args []value.Value) (value.Value, error)

// Native wraps a NativeFunc as a callable Value.
type Native struct {
	value.Object
	Name string
	Fn   NativeFunc
}

var _ value.HeapObject = (*Native)(nil)

func (n *Native) Type() string   { return "native" }
func (n *Native) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
