package object

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/glox/lang/value"
)

// Class is a runtime class value: a name and its method table. Methods are
// stored as Closures so that a method body can itself capture upvalues
// (e.g. from a surrounding function literal that defines the class).
type Class struct {
	value.Object
	Name       *String
	Methods    *swiss.Map[string, *Closure]
	Superclass *Class // nil if the class declaration had no "< Superclass" clause
}

var _ value.HeapObject = (*Class)(nil)

// NewClass returns an empty class with the given name.
func NewClass(name *String) *Class {
	return &Class{Name: name, Methods: swiss.NewMap[string, *Closure](8)}
}

func (c *Class) Type() string   { return "class" }
func (c *Class) String() string { return c.Name.Chars }

// FindMethod looks up name in c's own method table, then, if absent, the
// closest ancestor that defines it. Returns (nil, false) if no class in the
// chain defines it. Because OP_INHERIT copies a superclass's methods into
// the subclass at class-creation time, an ordinary lookup on c.Methods
// already finds inherited methods; FindMethod additionally walks
// Superclass so that `super.name` lookups (which must skip the current
// class's own overrides) can start from the superclass directly.
func (c *Class) FindMethod(name string) (*Closure, bool) {
	for cls := c; cls != nil; cls = cls.Superclass {
		if m, ok := cls.Methods.Get(name); ok {
			return m, true
		}
	}
	return nil, false
}

// Instance is a runtime instance of a Class, with its own field table.
type Instance struct {
	value.Object
	Class  *Class
	Fields *swiss.Map[string, value.Value]
}

var _ value.HeapObject = (*Instance)(nil)

// NewInstance returns a new, field-less instance of class.
func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: swiss.NewMap[string, value.Value](4)}
}

func (i *Instance) Type() string   { return "instance" }
func (i *Instance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }

// BoundMethod pairs a receiver with one of its class's methods, produced by
// a property-access expression like `instance.method` (without a call) or
// implicitly by a method call.
type BoundMethod struct {
	value.Object
	Receiver value.Value
	Method   *Closure
}

var _ value.HeapObject = (*BoundMethod)(nil)

func (b *BoundMethod) Type() string   { return "bound method" }
func (b *BoundMethod) String() string { return b.Method.String() }
