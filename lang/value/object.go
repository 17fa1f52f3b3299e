package value

// Object is the header embedded in every heap-allocated Value variant. It
// carries the GC mark bit and the intrusive link to the next object in the
// heap's all-objects list, matching the {type_tag, gc_mark, next_in_all_list}
// header every heap object carries (the type tag itself falls out of the
// concrete Go type via Type()/a type switch, so it is not stored again here).
type Object struct {
	marked bool
	next   Value
}

// Marked reports whether the current mark-sweep pass has reached this
// object.
func (o *Object) Marked() bool { return o.marked }

// SetMarked sets or clears the GC mark bit.
func (o *Object) SetMarked(m bool) { o.marked = m }

// Next returns the next object in the heap's intrusive all-objects list, or
// nil if this object is the list's tail.
func (o *Object) Next() Value { return o.next }

// SetNext links o to the next object in the heap's intrusive all-objects
// list.
func (o *Object) SetNext(v Value) { o.next = v }

// HeapObject is implemented by every heap-allocated Value variant (via the
// embedded Object header). The heap/GC package links, marks and sweeps
// objects through this interface; finding the objects a given object
// references (and sizing strings) still switches on the concrete variant
// types, so a new heap type with references needs a case in the collector.
type HeapObject interface {
	Value
	Marked() bool
	SetMarked(bool)
	Next() Value
	SetNext(Value)
}
