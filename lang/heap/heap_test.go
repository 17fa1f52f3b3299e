package heap_test

import (
	"testing"

	"github.com/mna/glox/lang/heap"
	"github.com/mna/glox/lang/object"
	"github.com/mna/glox/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countObjects walks the intrusive all-objects list and returns its length.
func countObjects(h *heap.Heap) int {
	n := 0
	for cur := h.AllObjects(); cur != nil; {
		obj := cur.(value.HeapObject)
		n++
		cur = obj.Next()
	}
	return n
}

func TestInternStringDedupes(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	a := h.InternString("hello")
	b := h.InternString("hello")
	c := h.InternString("world")

	assert.Same(t, a, b, "equal content must yield the same *String pointer")
	assert.NotSame(t, a, c)
	assert.Equal(t, object.FNV1a("hello"), a.Hash)
}

func TestConcatInternsResult(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	a := h.InternString("foo")
	b := h.InternString("bar")
	cat := h.Concat(a, b)
	other := h.InternString("foobar")

	assert.Same(t, other, cat)
}

func TestCollectSweepsUnreachable(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	kept := h.InternString("kept")
	_ = h.InternString("garbage")
	require.Equal(t, 2, countObjects(h))

	h.Collect(func(mark heap.MarkFunc) {
		mark(kept)
	})

	assert.Equal(t, 1, countObjects(h), "unreachable string must be swept")
	assert.False(t, kept.Marked(), "sweep must clear the mark bit on survivors")
}

func TestCollectRemovesWhiteInterns(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	h.InternString("ephemeral")
	h.Collect(func(mark heap.MarkFunc) {})

	// Re-interning after a collection that found no roots must allocate a
	// fresh String rather than resurrect the swept one: the old pointer is no
	// longer reachable, and the intern table must not have kept a strong
	// reference to it.
	again := h.InternString("ephemeral")
	assert.Equal(t, 1, countObjects(h))
	assert.False(t, again.Marked())
}

func TestCollectKeepsTransitivelyReachableObjects(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	name := h.InternString("greet")
	fn := h.NewFunction(name)
	fn.Chunk.AddConstant(h.InternString("payload"))
	cl := h.NewClosure(fn)

	h.Collect(func(mark heap.MarkFunc) {
		mark(cl)
	})

	assert.Equal(t, 4, countObjects(h), "closure, function, name and constant must all survive")
}

func TestCollectUnreachableClosureIsSwept(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	name := h.InternString("forgotten")
	fn := h.NewFunction(name)
	h.NewClosure(fn)

	h.Collect(func(mark heap.MarkFunc) {})

	assert.Equal(t, 0, countObjects(h))
}

func TestCollectInstanceMarksClassAndFields(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	className := h.InternString("Point")
	cls := h.NewClass(className)
	inst := h.NewInstance(cls)
	fieldVal := h.InternString("field-value")
	inst.Fields.Put("label", fieldVal)

	h.Collect(func(mark heap.MarkFunc) {
		mark(inst)
	})

	assert.False(t, cls.Marked(), "sweep clears the mark bit on survivors")
	assert.Equal(t, 4, countObjects(h), "instance, class, class name and field value must survive")
}

func TestCollectInheritedSuperclassSurvives(t *testing.T) {
	h := heap.New(1<<20, 2.0)

	superName := h.InternString("Animal")
	super := h.NewClass(superName)
	subName := h.InternString("Dog")
	sub := h.NewClass(subName)
	sub.Superclass = super

	h.Collect(func(mark heap.MarkFunc) {
		mark(sub)
	})

	assert.Equal(t, 4, countObjects(h), "subclass, its name, superclass and superclass name must survive")
}

func TestCollectIfNeededRespectsThreshold(t *testing.T) {
	h := heap.New(1<<20, 2.0)
	h.InternString("small")

	ran := h.CollectIfNeeded(func(mark heap.MarkFunc) {})
	assert.False(t, ran, "allocation is far below the initial threshold")
}

func TestCollectIfNeededStressGCAlwaysCollects(t *testing.T) {
	h := heap.New(1<<20, 2.0)
	h.StressGC = true
	h.InternString("tiny")

	ran := h.CollectIfNeeded(func(mark heap.MarkFunc) {})
	assert.True(t, ran, "StressGC must force a collection regardless of threshold")
}

func TestCollectGrowsThresholdByGrowthFactor(t *testing.T) {
	// After a collection the threshold becomes surviving usage times the
	// growth factor, so an immediate re-check with no new allocation must not
	// trigger another collection...
	h := heap.New(1, 2.0)
	kept := h.InternString("x")
	h.Collect(func(mark heap.MarkFunc) {
		mark(kept)
	})
	require.False(t, h.CollectIfNeeded(func(mark heap.MarkFunc) {}))

	// ...but growing usage well past it must.
	for i := 0; i < 1000; i++ {
		h.InternString(string(rune('a' + i%26)))
	}
	assert.True(t, h.CollectIfNeeded(func(mark heap.MarkFunc) {}))
}
