package heap

import (
	"github.com/mna/glox/lang/chunk"
	"github.com/mna/glox/lang/object"
	"github.com/mna/glox/lang/value"
)

// String is a convenience alias so call sites in the compiler do not need
// to import both heap and object just to name the interned-string type.
type String = object.String

// InternString returns the canonical *object.String for s, allocating and
// tracking a new one only if the intern table does not already hold it.
// Equal byte content always yields the same pointer (the intern
// invariant).
func (h *Heap) InternString(s string) *object.String {
	if existing, ok := h.intern.Get(s); ok {
		return existing
	}
	str := &object.String{Chars: s, Hash: object.FNV1a(s)}
	h.intern.Put(s, str)
	h.track(str, int64(len(s)))
	return str
}

// Concat interns the concatenation of two strings' content, without
// allocating the intermediate if it is already interned.
func (h *Heap) Concat(a, b *object.String) *object.String {
	return h.InternString(a.Chars + b.Chars)
}

// NewFunction allocates and tracks a new, empty Function with the given
// name and a fresh empty chunk; the caller fills in Arity/UpvalueCount and
// the chunk's code as compilation of its body completes.
func (h *Heap) NewFunction(name *String) *object.Function {
	fn := &object.Function{Chunk: &chunk.Chunk{}, Name: name}
	h.track(fn, 0)
	return fn
}

// NewClosure allocates and tracks a Closure wrapping fn, with upvalues
// slots pre-sized but unfilled (the VM's OP_CLOSURE handler fills them in).
func (h *Heap) NewClosure(fn *object.Function) *object.Closure {
	cl := &object.Closure{Function: fn, Upvalues: make([]*object.Upvalue, fn.UpvalueCount)}
	h.track(cl, 0)
	return cl
}

// NewUpvalue allocates and tracks an open Upvalue pointing at stackIndex.
func (h *Heap) NewUpvalue(stackIndex int) *object.Upvalue {
	uv := &object.Upvalue{StackIndex: stackIndex}
	h.track(uv, 0)
	return uv
}

// NewNative allocates and tracks a Native wrapping fn.
func (h *Heap) NewNative(name string, fn object.NativeFunc) *object.Native {
	n := &object.Native{Name: name, Fn: fn}
	h.track(n, 0)
	return n
}

// NewClass allocates and tracks an empty Class.
func (h *Heap) NewClass(name *object.String) *object.Class {
	cls := object.NewClass(name)
	h.track(cls, 0)
	return cls
}

// NewInstance allocates and tracks a field-less Instance of class.
func (h *Heap) NewInstance(class *object.Class) *object.Instance {
	inst := object.NewInstance(class)
	h.track(inst, 0)
	return inst
}

// NewBoundMethod allocates and tracks a BoundMethod.
func (h *Heap) NewBoundMethod(receiver value.Value, method *object.Closure) *object.BoundMethod {
	bm := &object.BoundMethod{Receiver: receiver, Method: method}
	h.track(bm, 0)
	return bm
}
