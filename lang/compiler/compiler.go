// Package compiler implements the single-pass Pratt-parser / recursive
// descent compiler: it walks the token stream exactly once, emitting
// bytecode directly into a chunk as it parses rather than building an
// intermediate AST.
package compiler

import (
	"fmt"

	"github.com/mna/glox/lang/chunk"
	"github.com/mna/glox/lang/heap"
	"github.com/mna/glox/lang/object"
	"github.com/mna/glox/lang/scanner"
	"github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArity    = 255
)

// funcKind distinguishes the four contexts a nested compiler can compile,
// which affects slot-0 naming, implicit returns, and whether `return <expr>`
// is legal.
type funcKind int

const (
	kindScript funcKind = iota
	kindFunction
	kindMethod
	kindInitializer
)

// localVar mirrors one compile-time local variable slot: its declared name,
// the scope depth at which it became initialized (the sentinel -1 means
// "declared but not yet initialized"), and whether any nested closure
// captures it (in which case ending its scope must close it rather than
// merely pop it).
type localVar struct {
	name       string
	depth      int
	isCaptured bool
}

// upvalueRef mirrors one compile-time upvalue slot: either a local slot of
// the immediately enclosing function, or an upvalue index of that function.
type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState is the compile-time record for one function body being
// compiled; funcStates form a stack matching lexical nesting of `fun`
// declarations and methods.
type funcState struct {
	enclosing *funcState

	function *object.Function
	kind     funcKind

	locals     []localVar
	scopeDepth int
	upvalues   []upvalueRef

	// constants deduplicates this function's constant pool by Go value, so
	// repeating the same literal within one function does not grow the pool.
	constants map[value.Value]uint8
}

// classState tracks the class currently being compiled (nested classes
// chain through enclosing), solely to validate `this`/`super` usage and to
// know whether the innermost class has a superclass.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Parser holds all state for one Compile call: the scanner, the lookahead
// tokens, accumulated diagnostics, and the stack of in-progress functions
// and classes.
type Parser struct {
	scanner *scanner.Scanner
	heap    *heap.Heap

	current  token.Lexeme
	previous token.Lexeme

	hadError  bool
	panicMode bool
	errs      ErrorList

	cur   *funcState
	class *classState
}

// Compile compiles source into the top-level script Function, or returns an
// ErrorList if the source contains any compile error. A non-nil error is
// always an ErrorList; the VM must never execute a Function returned
// alongside a non-nil error (there is none — on error Compile returns nil).
func Compile(h *heap.Heap, source string) (*object.Function, error) {
	var sc scanner.Scanner
	sc.Init(source)

	p := &Parser{scanner: &sc, heap: h}
	p.pushFunc(kindScript, "")
	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}
	fn := p.popFunc()

	if p.hadError {
		return nil, p.errs
	}
	return fn, nil
}

// pushFunc starts compiling a new function body, nesting it under p.cur.
func (p *Parser) pushFunc(kind funcKind, name string) {
	var fnName *object.String
	if name != "" {
		fnName = p.heap.InternString(name)
	}
	fs := &funcState{
		enclosing: p.cur,
		function:  p.heap.NewFunction(fnName),
		kind:      kind,
		constants: make(map[value.Value]uint8),
	}
	// Slot 0 is reserved: named "this" for methods/initializers (so method
	// bodies resolve `this` via ordinary local lookup), anonymous otherwise.
	slot0 := ""
	if kind == kindMethod || kind == kindInitializer {
		slot0 = "this"
	}
	fs.locals = append(fs.locals, localVar{name: slot0, depth: 0})
	p.cur = fs
}

// popFunc finishes the current function, appending its implicit trailing
// return, and returns to compiling the enclosing function (nil if this was
// the top-level script).
func (p *Parser) popFunc() *object.Function {
	p.emitReturn()
	fn := p.cur.function
	p.cur = p.cur.enclosing
	return fn
}

// --- token stream -----------------------------------------------------

func (p *Parser) advance() {
	p.previous = p.current
	for {
		p.current = p.scanner.Next()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Text)
	}
}

func (p *Parser) check(kind token.Token) bool { return p.current.Kind == kind }

func (p *Parser) match(kind token.Token) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) consume(kind token.Token, msg string) {
	if p.current.Kind == kind {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *Parser) errorAt(lex token.Lexeme, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	var where string
	switch lex.Kind {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
		// Scan errors carry their own message in Text; report it verbatim
		// with no location suffix.
		where = ""
		msg = lex.Text
	default:
		where = fmt.Sprintf(" at '%s'", lex.Text)
	}
	p.errs = append(p.errs, &Error{Line: lex.Line, Where: where, Message: msg})
}

func (p *Parser) errorAtCurrent(msg string)  { p.errorAt(p.current, msg) }
func (p *Parser) errorAtPrevious(msg string) { p.errorAt(p.previous, msg) }

// synchronize skips tokens until a likely statement boundary, so one error
// does not cascade into a wall of follow-on errors.
func (p *Parser) synchronize() {
	p.panicMode = false
	for !p.check(token.EOF) {
		if p.previous.Kind == token.SEMI {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- declarations & statements -----------------------------------------

func (p *Parser) declaration() {
	switch {
	case p.match(token.CLASS):
		p.classDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *Parser) classDeclaration() {
	p.consume(token.IDENT, "Expect class name.")
	className := p.previous
	nameConst := p.identifierConstant(className.Text)
	p.declareVariable()
	p.emitBytes(byte(chunk.OpClass), nameConst)
	p.defineVariable(nameConst)

	cs := &classState{enclosing: p.class}
	p.class = cs

	if p.match(token.LT) {
		p.consume(token.IDENT, "Expect superclass name.")
		p.variable(false)
		if p.previous.Text == className.Text {
			p.errorAtPrevious("A class can't inherit from itself.")
		}

		p.beginScope()
		p.addLocal("super")
		p.markInitialized()

		p.namedVariable(className, false)
		p.emitByte(byte(chunk.OpInherit))
		cs.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(token.LBRACE, "Expect '{' before class body.")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "Expect '}' after class body.")
	p.emitByte(byte(chunk.OpPop))

	if cs.hasSuperclass {
		p.endScope()
	}
	p.class = cs.enclosing
}

func (p *Parser) method() {
	p.consume(token.IDENT, "Expect method name.")
	name := p.previous.Text
	constant := p.identifierConstant(name)

	kind := kindMethod
	if name == "init" {
		kind = kindInitializer
	}
	p.function(kind)
	p.emitBytes(byte(chunk.OpMethod), constant)
}

func (p *Parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(kindFunction)
	p.defineVariable(global)
}

// function compiles a nested function body (shared by `fun` declarations
// and methods) and, once compiled, emits OP_CLOSURE in the *enclosing*
// function referencing it, followed by its upvalue descriptors.
func (p *Parser) function(kind funcKind) {
	p.pushFunc(kind, p.previous.Text)
	p.beginScope()

	p.consume(token.LPAREN, "Expect '(' after function name.")
	if !p.check(token.RPAREN) {
		for {
			p.cur.function.Arity++
			if p.cur.function.Arity > maxArity {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConst := p.parseVariable("Expect parameter name.")
			p.defineVariable(paramConst)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before function body.")
	p.block()

	upvalues := p.cur.upvalues
	fn := p.popFunc()

	idx := p.makeConstant(fn)
	p.emitBytes(byte(chunk.OpClosure), idx)
	for _, uv := range upvalues {
		var isLocal byte
		if uv.isLocal {
			isLocal = 1
		}
		p.emitByte(isLocal)
		p.emitByte(uv.index)
	}
}

func (p *Parser) varDeclaration() {
	global := p.parseVariable("Expect variable name.")
	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitByte(byte(chunk.OpNil))
	}
	p.consume(token.SEMI, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

func (p *Parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *Parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

func (p *Parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after value.")
	p.emitByte(byte(chunk.OpPrint))
}

func (p *Parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after expression.")
	p.emitByte(byte(chunk.OpPop))
}

func (p *Parser) ifStatement() {
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitByte(byte(chunk.OpPop))
	p.statement()

	elseJump := p.emitJump(chunk.OpJump)
	p.patchJump(thenJump)
	p.emitByte(byte(chunk.OpPop))

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *Parser) whileStatement() {
	loopStart := len(p.cur.function.Chunk.Code)
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitByte(byte(chunk.OpPop))
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitByte(byte(chunk.OpPop))
}

func (p *Parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after 'for'.")
	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.cur.function.Chunk.Code)
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = p.emitJump(chunk.OpJumpIfFalse)
		p.emitByte(byte(chunk.OpPop))
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(chunk.OpJump)
		incrementStart := len(p.cur.function.Chunk.Code)
		p.expression()
		p.emitByte(byte(chunk.OpPop))
		p.consume(token.RPAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrementStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitByte(byte(chunk.OpPop))
	}
	p.endScope()
}

func (p *Parser) returnStatement() {
	if p.cur.kind == kindScript {
		p.errorAtPrevious("Can't return from top-level code.")
	}
	switch {
	case p.match(token.SEMI):
		p.emitReturn()
	default:
		if p.cur.kind == kindInitializer {
			p.errorAtPrevious("Can't return a value from an initializer.")
		}
		p.expression()
		p.consume(token.SEMI, "Expect ';' after return value.")
		p.emitByte(byte(chunk.OpReturn))
	}
}

// --- scopes & variables --------------------------------------------------

func (p *Parser) beginScope() { p.cur.scopeDepth++ }

func (p *Parser) endScope() {
	p.cur.scopeDepth--
	locals := p.cur.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.cur.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitByte(byte(chunk.OpCloseUpvalue))
		} else {
			p.emitByte(byte(chunk.OpPop))
		}
		locals = locals[:len(locals)-1]
	}
	p.cur.locals = locals
}

// parseVariable consumes an identifier and declares it; for a global it
// returns the name's constant-pool index (used by DEFINE_GLOBAL), for a
// local it returns 0 (unused by the caller, since locals need no operand).
func (p *Parser) parseVariable(errMsg string) byte {
	p.consume(token.IDENT, errMsg)
	p.declareVariable()
	if p.cur.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.previous.Text)
}

func (p *Parser) declareVariable() {
	if p.cur.scopeDepth == 0 {
		return
	}
	name := p.previous.Text
	for i := len(p.cur.locals) - 1; i >= 0; i-- {
		l := p.cur.locals[i]
		if l.depth != -1 && l.depth < p.cur.scopeDepth {
			break
		}
		if l.name == name {
			p.errorAtPrevious("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *Parser) addLocal(name string) {
	if len(p.cur.locals) >= maxLocals {
		p.errorAtPrevious("Too many local variables in function.")
		return
	}
	p.cur.locals = append(p.cur.locals, localVar{name: name, depth: -1})
}

func (p *Parser) markInitialized() {
	if p.cur.scopeDepth == 0 {
		return
	}
	p.cur.locals[len(p.cur.locals)-1].depth = p.cur.scopeDepth
}

func (p *Parser) defineVariable(global byte) {
	if p.cur.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitBytes(byte(chunk.OpDefineGlobal), global)
}

func (p *Parser) identifierConstant(name string) byte {
	return p.makeConstant(p.heap.InternString(name))
}

func (p *Parser) resolveLocal(fs *funcState, name string) int {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				p.errorAtPrevious("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

func (p *Parser) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := p.resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].isCaptured = true
		return p.addUpvalue(fs, uint8(local), true)
	}
	if uv := p.resolveUpvalue(fs.enclosing, name); uv != -1 {
		return p.addUpvalue(fs, uint8(uv), false)
	}
	return -1
}

func (p *Parser) addUpvalue(fs *funcState, index uint8, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		p.errorAtPrevious("Too many closure variables in function.")
		return 0
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	fs.function.UpvalueCount = len(fs.upvalues)
	return len(fs.upvalues) - 1
}

// --- bytecode emission ---------------------------------------------------

func (p *Parser) emitByte(b byte) {
	p.cur.function.Chunk.Write(b, p.previous.Line)
}

func (p *Parser) emitBytes(b1, b2 byte) {
	p.emitByte(b1)
	p.emitByte(b2)
}

func (p *Parser) emitReturn() {
	if p.cur.kind == kindInitializer {
		// `init` implicitly returns `this` (slot 0) even with no explicit
		// return statement, so `Box(1)` still yields the new instance.
		p.emitBytes(byte(chunk.OpGetLocal), 0)
	} else {
		p.emitByte(byte(chunk.OpNil))
	}
	p.emitByte(byte(chunk.OpReturn))
}

func (p *Parser) makeConstant(v value.Value) byte {
	fs := p.cur
	if idx, ok := fs.constants[v]; ok {
		return idx
	}
	if len(fs.function.Chunk.Constants) >= 256 {
		p.errorAtPrevious("Too many constants in one chunk.")
		return 0
	}
	idx := fs.function.Chunk.AddConstant(v)
	fs.constants[v] = byte(idx)
	return byte(idx)
}

func (p *Parser) emitConstant(v value.Value) {
	p.emitBytes(byte(chunk.OpConstant), p.makeConstant(v))
}

// emitJump emits a two-byte placeholder operand for a forward jump and
// returns the operand's offset, to be filled in later by patchJump.
func (p *Parser) emitJump(op chunk.OpCode) int {
	p.emitByte(byte(op))
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.cur.function.Chunk.Code) - 2
}

func (p *Parser) patchJump(offset int) {
	jump := len(p.cur.function.Chunk.Code) - offset - 2
	if jump > 0xffff {
		p.errorAtPrevious("Too much code to jump over.")
	}
	code := p.cur.function.Chunk.Code
	code[offset] = byte(jump >> 8)
	code[offset+1] = byte(jump)
}

func (p *Parser) emitLoop(loopStart int) {
	p.emitByte(byte(chunk.OpLoop))
	offset := len(p.cur.function.Chunk.Code) - loopStart + 2
	if offset > 0xffff {
		p.errorAtPrevious("Loop body too large.")
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}
