package compiler

import (
	"fmt"
	"strings"
)

// Error is a single compile-time diagnostic, formatted as
// "[line N] Error<where>: <message>".
type Error struct {
	Line    int
	Where   string // " at 'x'", " at end", or "" for a scan error
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d] Error%s: %s", e.Line, e.Where, e.Message)
}

// ErrorList accumulates every diagnostic reported during one Compile call.
// Compile keeps walking to EOF after the first error (panic-mode recovery
// resynchronizes at the next statement boundary) so that a single pass
// reports every error the source contains, not just the first.
type ErrorList []*Error

func (el ErrorList) Error() string {
	var b strings.Builder
	for i, e := range el {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
