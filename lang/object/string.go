// Package object implements the heap object variants: String, Function,
// Closure, Upvalue, Native, Class, Instance and BoundMethod. Every variant
// embeds value.Object so the heap/GC can manage it uniformly through the
// value.HeapObject interface.
package object

import "github.com/mna/glox/lang/value"

// String is an immutable, interned heap string. Two Strings with identical
// byte content are always the same *String pointer (see package heap's
// intern table), so string equality anywhere in the VM is pointer equality.
type String struct {
	value.Object
	Chars string
	Hash  uint32
}

var _ value.HeapObject = (*String)(nil)

func (s *String) String() string { return s.Chars }
func (s *String) Type() string   { return "string" }

// FNV1a computes the FNV-1a hash of s. It is exported so the heap can fill
// in Hash when it allocates a new interned String.
func FNV1a(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
