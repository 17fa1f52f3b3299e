// Package value defines the runtime Value representation shared by the
// compiler (constant pool entries), the heap/GC, and the VM.
package value

import "fmt"

// Value is the interface implemented by every value the VM can manipulate:
// the three unboxed variants (Nil, Bool, Number) and every heap object
// variant (String, Function, Closure, Upvalue, Native, Class, Instance,
// BoundMethod).
type Value interface {
	// String returns the value's printed representation, per the rules of
	// the language's print statement.
	String() string

	// Type returns a short, human-readable type name used in error messages.
	Type() string
}

// Nil is the language's singular absence-of-a-value. It is represented as a
// distinct type (not Go nil) so that a Value holding it is never confused
// with the absence of a Value (a nil interface).
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the single instance of Nil; use it instead of constructing
// Nil{} literals.
var NilValue = Nil{}

// Bool is the boolean value type.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is an IEEE-754 double-precision float, the language's only numeric
// type.
type Number float64

func (n Number) String() string { return formatNumber(float64(n)) }
func (Number) Type() string     { return "number" }

// formatNumber renders a float64 the way the language's print statement
// does: the shortest decimal representation that round-trips, without a
// trailing ".0" for integral values (matching the printed form used by
// clox's NUMBER_VAL formatting, `%g`-like but without exponent noise for
// everyday integers and fractions).
func formatNumber(f float64) string {
	return fmt.Sprintf("%v", f)
}

// Truthy reports the language's truthiness of v: Nil and Bool(false) are
// false, everything else -- including the number 0 and the empty string --
// is true.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}
