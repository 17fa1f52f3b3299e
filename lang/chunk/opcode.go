package chunk

// OpCode identifies a single bytecode instruction. Operands, when present,
// immediately follow the opcode byte in Chunk.Code; see the per-opcode
// comment for the operand layout.
type OpCode byte

//nolint:revive
const (
	OpConstant      OpCode = iota // idx:u8        — push constants[idx]
	OpNil                         // —             — push Nil
	OpTrue                        // —             — push Bool(true)
	OpFalse                       // —             — push Bool(false)
	OpPop                         // —             — discard top
	OpGetLocal                    // slot:u8       — push stack[base+slot]
	OpSetLocal                    // slot:u8       — stack[base+slot] = peek(0)
	OpGetGlobal                   // nameConst:u8  — push globals[name] or runtime error
	OpDefineGlobal                // nameConst:u8  — globals[name] = pop()
	OpSetGlobal                   // nameConst:u8  — globals[name] = peek(0); error if undefined
	OpGetUpvalue                  // idx:u8        — push *frame.closure.upvalues[idx]
	OpSetUpvalue                  // idx:u8        — *frame.closure.upvalues[idx] = peek(0)
	OpGetProperty                 // nameConst:u8  — replace receiver with field or bound method
	OpSetProperty                 // nameConst:u8  — instance.fields[name] = peek(0), leaves value
	OpGetSuper                    // nameConst:u8  — bind method from superclass, push BoundMethod
	OpEqual                       // —             — push a == b
	OpGreater                     // —             — push a > b
	OpLess                        // —             — push a < b
	OpAdd                         // —             — numeric sum or string concat
	OpSubtract                    // —             — numeric difference
	OpMultiply                    // —             — numeric product
	OpDivide                      // —             — numeric quotient
	OpNot                         // —             — push !truthy(pop())
	OpNegate                      // —             — push -pop()
	OpPrint                       // —             — print pop()
	OpJump                        // off:u16       — ip += off
	OpJumpIfFalse                 // off:u16       — ip += off if !truthy(peek(0)); does not pop
	OpLoop                        // off:u16       — ip -= off
	OpCall                        // argc:u8       — call value at stack[top-argc-1]
	OpInvoke                      // nameConst:u8, argc:u8 — fused get-property + call
	OpSuperInvoke                 // nameConst:u8, argc:u8 — fused super get + call
	OpClosure                     // constIdx:u8, then upvalueCount*{isLocal:u8, index:u8}
	OpCloseUpvalue                // —             — close upvalues at or above top, pop
	OpReturn                      // —             — return pop() to caller
	OpClass                       // nameConst:u8  — push new empty Class
	OpInherit                     // —             — copy superclass methods into subclass
	OpMethod                      // nameConst:u8  — class.methods[name] = pop() (a Closure)

	numOpCodes
)

var opcodeNames = [...]string{
	OpConstant:      "OP_CONSTANT",
	OpNil:           "OP_NIL",
	OpTrue:          "OP_TRUE",
	OpFalse:         "OP_FALSE",
	OpPop:           "OP_POP",
	OpGetLocal:      "OP_GET_LOCAL",
	OpSetLocal:      "OP_SET_LOCAL",
	OpGetGlobal:     "OP_GET_GLOBAL",
	OpDefineGlobal:  "OP_DEFINE_GLOBAL",
	OpSetGlobal:     "OP_SET_GLOBAL",
	OpGetUpvalue:    "OP_GET_UPVALUE",
	OpSetUpvalue:    "OP_SET_UPVALUE",
	OpGetProperty:   "OP_GET_PROPERTY",
	OpSetProperty:   "OP_SET_PROPERTY",
	OpGetSuper:      "OP_GET_SUPER",
	OpEqual:         "OP_EQUAL",
	OpGreater:       "OP_GREATER",
	OpLess:          "OP_LESS",
	OpAdd:           "OP_ADD",
	OpSubtract:      "OP_SUBTRACT",
	OpMultiply:      "OP_MULTIPLY",
	OpDivide:        "OP_DIVIDE",
	OpNot:           "OP_NOT",
	OpNegate:        "OP_NEGATE",
	OpPrint:         "OP_PRINT",
	OpJump:          "OP_JUMP",
	OpJumpIfFalse:   "OP_JUMP_IF_FALSE",
	OpLoop:          "OP_LOOP",
	OpCall:          "OP_CALL",
	OpInvoke:        "OP_INVOKE",
	OpSuperInvoke:   "OP_SUPER_INVOKE",
	OpClosure:       "OP_CLOSURE",
	OpCloseUpvalue:  "OP_CLOSE_UPVALUE",
	OpReturn:        "OP_RETURN",
	OpClass:         "OP_CLASS",
	OpInherit:       "OP_INHERIT",
	OpMethod:        "OP_METHOD",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "OP_UNKNOWN"
}
