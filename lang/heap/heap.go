// Package heap implements the object heap shared by the compiler and the
// VM: the intrusive all-objects list, the string intern table, and a
// tri-color mark-sweep collector with an explicit gray worklist.
//
// A Heap is an ordinary Go value owned by whichever VM (or, during
// compilation, compiler) created it; there is no package-level singleton,
// so multiple independent interpreters can coexist in one process.
package heap

import (
	"github.com/dolthub/swiss"

	"github.com/mna/glox/lang/object"
	"github.com/mna/glox/lang/value"
)

// roughly the per-object bookkeeping overhead charged against
// bytesAllocated, on top of any variable-length payload (e.g. string
// bytes). The exact figure is unimportant; what matters is that every
// allocation charges something, so the threshold is eventually crossed.
const baseObjectSize = 16

// Heap owns every heap-allocated Value the VM or compiler creates.
type Heap struct {
	all value.Value // head of the intrusive all-objects list, or nil

	bytesAllocated int64
	nextGC         int64
	growthFactor   float64

	intern *swiss.Map[string, *object.String]

	// StressGC, when true, makes every CollectIfNeeded call collect regardless
	// of the threshold. Intended for tests that want to catch rooting bugs
	// quickly (mirrors clox's DEBUG_STRESS_GC build flag). The VM calls
	// CollectIfNeeded once per executed instruction; allocations themselves,
	// including those made by the compiler, never trigger a collection.
	StressGC bool

	// Log, if non-nil, receives one line per collection describing bytes
	// freed and the new threshold; used for the optional GC trace.
	Log func(format string, args ...any)

	gray []value.HeapObject // reused gray worklist buffer
}

// New returns a Heap with the given initial collection threshold (bytes)
// and growth factor (nextGC = bytesAllocated * growthFactor after each
// collection).
func New(initialThresholdBytes int64, growthFactor float64) *Heap {
	return &Heap{
		nextGC:       initialThresholdBytes,
		growthFactor: growthFactor,
		intern:       swiss.NewMap[string, *object.String](64),
	}
}

// BytesAllocated returns the heap's current estimate of live+garbage bytes:
// what survived the last collection plus everything allocated since.
func (h *Heap) BytesAllocated() int64 { return h.bytesAllocated }

// track links obj into the all-objects list and charges baseObjectSize plus
// size (its variable-length payload) against bytesAllocated.
func (h *Heap) track(obj value.HeapObject, size int64) {
	obj.SetNext(h.all)
	h.all = obj
	h.bytesAllocated += baseObjectSize + size
}

// MarkFunc is passed to a MarkRoots callback; calling it marks v (and,
// transitively, everything v references) as reachable. Non-heap values
// (Nil, Bool, Number) are accepted and ignored.
type MarkFunc func(value.Value)

// MarkRoots is supplied by the VM to enumerate every root reachable from
// outside the heap: the value stack, active call frames' closures, open
// upvalues, and the globals table.
type MarkRoots func(mark MarkFunc)

// CollectIfNeeded runs a collection if bytesAllocated has crossed nextGC,
// or unconditionally if StressGC is set. It returns whether a collection
// ran.
func (h *Heap) CollectIfNeeded(roots MarkRoots) bool {
	if h.StressGC || h.bytesAllocated > h.nextGC {
		h.Collect(roots)
		return true
	}
	return false
}

// Collect forces a mark-sweep collection regardless of the threshold.
func (h *Heap) Collect(roots MarkRoots) {
	before := h.bytesAllocated
	h.gray = h.gray[:0]

	roots(h.mark)
	h.drainGray()
	h.removeWhiteInterns()
	h.sweep()

	h.nextGC = int64(float64(h.bytesAllocated) * h.growthFactor)
	if h.nextGC <= 0 {
		h.nextGC = baseObjectSize
	}
	if h.Log != nil {
		h.Log("gc: %d -> %d bytes, next at %d", before, h.bytesAllocated, h.nextGC)
	}
}

// mark pushes v onto the gray worklist if it is a heap object that is not
// already marked. Non-heap values are no-ops.
func (h *Heap) mark(v value.Value) {
	obj, ok := v.(value.HeapObject)
	if !ok || obj == nil {
		return
	}
	if obj.Marked() {
		return
	}
	obj.SetMarked(true)
	h.gray = append(h.gray, obj)
}

// drainGray repeatedly pops a gray object and blackens it (marks every
// object it references) until the worklist is empty.
func (h *Heap) drainGray() {
	for len(h.gray) > 0 {
		obj := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		h.blacken(obj)
	}
}

// blacken marks every object directly referenced by obj.
func (h *Heap) blacken(obj value.HeapObject) {
	switch o := obj.(type) {
	case *object.String:
		// no references

	case *object.Function:
		if o.Name != nil {
			h.mark(o.Name)
		}
		if o.Chunk != nil {
			for _, c := range o.Chunk.Constants {
				h.mark(c)
			}
		}

	case *object.Closure:
		h.mark(o.Function)
		for _, uv := range o.Upvalues {
			h.mark(uv)
		}

	case *object.Upvalue:
		if o.IsClosed() {
			h.mark(o.Closed)
		}

	case *object.Native:
		// no references

	case *object.Class:
		h.mark(o.Name)
		if o.Superclass != nil {
			h.mark(o.Superclass)
		}
		it := o.Methods.Iter()
		for it.Next() {
			_, m := it.Pair()
			h.mark(m)
		}

	case *object.Instance:
		h.mark(o.Class)
		it := o.Fields.Iter()
		for it.Next() {
			_, v := it.Pair()
			h.mark(v)
		}

	case *object.BoundMethod:
		h.mark(o.Receiver)
		h.mark(o.Method)
	}
}

// removeWhiteInterns drops every intern-table entry whose string object did
// not get marked this collection, so the table holds only weak references
// to live strings and never keeps an otherwise-unreachable string alive.
func (h *Heap) removeWhiteInterns() {
	var dead []string
	it := h.intern.Iter()
	for it.Next() {
		k, s := it.Pair()
		if !s.Marked() {
			dead = append(dead, k)
		}
	}
	for _, k := range dead {
		h.intern.Delete(k)
	}
}

// sweep walks the all-objects list, unlinking and discarding every
// unmarked object, and clears the mark bit on every survivor.
func (h *Heap) sweep() {
	var head value.Value
	var tail value.HeapObject

	cur := h.all
	for cur != nil {
		obj := cur.(value.HeapObject)
		next := obj.Next()
		if obj.Marked() {
			obj.SetMarked(false)
			if tail == nil {
				head = obj
			} else {
				tail.SetNext(obj)
			}
			tail = obj
		} else {
			h.bytesAllocated -= sizeOf(obj)
		}
		cur = next
	}
	if tail != nil {
		tail.SetNext(nil)
	}
	h.all = head
}

// sizeOf estimates the number of bytes to charge for obj; see baseObjectSize.
func sizeOf(obj value.HeapObject) int64 {
	size := int64(baseObjectSize)
	if s, ok := obj.(*object.String); ok {
		size += int64(len(s.Chars))
	}
	return size
}

// AllObjects returns the head of the intrusive all-objects list, for tests
// that want to walk it directly.
func (h *Heap) AllObjects() value.Value { return h.all }
