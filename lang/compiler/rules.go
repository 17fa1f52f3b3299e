package compiler

import (
	"strconv"

	"github.com/mna/glox/lang/chunk"
	"github.com/mna/glox/lang/token"
	"github.com/mna/glox/lang/value"
)

// precedence orders binding power from loosest to tightest: Assignment,
// Or, And, Equality, Comparison, Term, Factor, Unary, Call, Primary.
type precedence int

const (
	precNone precedence = iota
	precAssignment
	precOr
	precAnd
	precEquality
	precComparison
	precTerm
	precFactor
	precUnary
	precCall
	precPrimary
)

type parseFn func(p *Parser, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   precedence
}

// rules maps a token kind to its Pratt entry. A token with no entry (the
// zero value) has neither a prefix nor an infix meaning.
var rules = map[token.Token]parseRule{
	token.LPAREN: {prefix: (*Parser).grouping, infix: (*Parser).call, prec: precCall},
	token.DOT:    {infix: (*Parser).dot, prec: precCall},
	token.MINUS:  {prefix: (*Parser).unary, infix: (*Parser).binary, prec: precTerm},
	token.PLUS:   {infix: (*Parser).binary, prec: precTerm},
	token.SLASH:  {infix: (*Parser).binary, prec: precFactor},
	token.STAR:   {infix: (*Parser).binary, prec: precFactor},
	token.BANG:   {prefix: (*Parser).unary},
	token.NEQ:    {infix: (*Parser).binary, prec: precEquality},
	token.EQL:    {infix: (*Parser).binary, prec: precEquality},
	token.GT:     {infix: (*Parser).binary, prec: precComparison},
	token.GE:     {infix: (*Parser).binary, prec: precComparison},
	token.LT:     {infix: (*Parser).binary, prec: precComparison},
	token.LE:     {infix: (*Parser).binary, prec: precComparison},
	token.IDENT:  {prefix: (*Parser).variable},
	token.STRING: {prefix: (*Parser).string},
	token.NUMBER: {prefix: (*Parser).number},
	token.AND:    {infix: (*Parser).and, prec: precAnd},
	token.OR:     {infix: (*Parser).or, prec: precOr},
	token.FALSE:  {prefix: (*Parser).literal},
	token.NIL:    {prefix: (*Parser).literal},
	token.TRUE:   {prefix: (*Parser).literal},
	token.SUPER:  {prefix: (*Parser).super},
	token.THIS:   {prefix: (*Parser).this},
}

func (p *Parser) getRule(kind token.Token) parseRule { return rules[kind] }

func (p *Parser) expression() { p.parsePrecedence(precAssignment) }

func (p *Parser) parsePrecedence(prec precedence) {
	p.advance()
	prefix := p.getRule(p.previous.Kind).prefix
	if prefix == nil {
		p.errorAtPrevious("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(p, canAssign)

	for prec <= p.getRule(p.current.Kind).prec {
		p.advance()
		infix := p.getRule(p.previous.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.errorAtPrevious("Invalid assignment target.")
	}
}

func (p *Parser) number(canAssign bool) {
	n, err := strconv.ParseFloat(p.previous.Text, 64)
	if err != nil {
		p.errorAtPrevious("Invalid number literal.")
		return
	}
	p.emitConstant(value.Number(n))
}

func (p *Parser) string(canAssign bool) {
	p.emitConstant(p.heap.InternString(p.previous.Text))
}

func (p *Parser) literal(canAssign bool) {
	switch p.previous.Kind {
	case token.FALSE:
		p.emitByte(byte(chunk.OpFalse))
	case token.NIL:
		p.emitByte(byte(chunk.OpNil))
	case token.TRUE:
		p.emitByte(byte(chunk.OpTrue))
	}
}

func (p *Parser) grouping(canAssign bool) {
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after expression.")
}

func (p *Parser) unary(canAssign bool) {
	opKind := p.previous.Kind
	p.parsePrecedence(precUnary)
	switch opKind {
	case token.MINUS:
		p.emitByte(byte(chunk.OpNegate))
	case token.BANG:
		p.emitByte(byte(chunk.OpNot))
	}
}

func (p *Parser) binary(canAssign bool) {
	opKind := p.previous.Kind
	rule := p.getRule(opKind)
	p.parsePrecedence(rule.prec + 1)

	switch opKind {
	case token.NEQ:
		p.emitBytes(byte(chunk.OpEqual), byte(chunk.OpNot))
	case token.EQL:
		p.emitByte(byte(chunk.OpEqual))
	case token.GT:
		p.emitByte(byte(chunk.OpGreater))
	case token.GE:
		p.emitBytes(byte(chunk.OpLess), byte(chunk.OpNot))
	case token.LT:
		p.emitByte(byte(chunk.OpLess))
	case token.LE:
		p.emitBytes(byte(chunk.OpGreater), byte(chunk.OpNot))
	case token.PLUS:
		p.emitByte(byte(chunk.OpAdd))
	case token.MINUS:
		p.emitByte(byte(chunk.OpSubtract))
	case token.STAR:
		p.emitByte(byte(chunk.OpMultiply))
	case token.SLASH:
		p.emitByte(byte(chunk.OpDivide))
	}
}

func (p *Parser) and(canAssign bool) {
	endJump := p.emitJump(chunk.OpJumpIfFalse)
	p.emitByte(byte(chunk.OpPop))
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *Parser) or(canAssign bool) {
	elseJump := p.emitJump(chunk.OpJumpIfFalse)
	endJump := p.emitJump(chunk.OpJump)

	p.patchJump(elseJump)
	p.emitByte(byte(chunk.OpPop))

	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

func (p *Parser) call(canAssign bool) {
	argc := p.argumentList()
	p.emitBytes(byte(chunk.OpCall), argc)
}

func (p *Parser) argumentList() byte {
	var argc int
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if argc == maxArity {
				p.errorAtPrevious("Can't have more than 255 arguments.")
			}
			argc++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(argc)
}

func (p *Parser) dot(canAssign bool) {
	p.consume(token.IDENT, "Expect property name after '.'.")
	name := p.identifierConstant(p.previous.Text)

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitBytes(byte(chunk.OpSetProperty), name)
	case p.match(token.LPAREN):
		argc := p.argumentList()
		p.emitBytes(byte(chunk.OpInvoke), name)
		p.emitByte(argc)
	default:
		p.emitBytes(byte(chunk.OpGetProperty), name)
	}
}

func (p *Parser) variable(canAssign bool) { p.namedVariable(p.previous, canAssign) }

func (p *Parser) namedVariable(name token.Lexeme, canAssign bool) {
	var getOp, setOp chunk.OpCode
	var arg int

	if slot := p.resolveLocal(p.cur, name.Text); slot != -1 {
		getOp, setOp, arg = chunk.OpGetLocal, chunk.OpSetLocal, slot
	} else if uv := p.resolveUpvalue(p.cur, name.Text); uv != -1 {
		getOp, setOp, arg = chunk.OpGetUpvalue, chunk.OpSetUpvalue, uv
	} else {
		arg = int(p.identifierConstant(name.Text))
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitBytes(byte(setOp), byte(arg))
	} else {
		p.emitBytes(byte(getOp), byte(arg))
	}
}

// syntheticIdent builds a lexeme naming an identifier not actually present
// at this source position, used to resolve the implicit `this`/`super`
// bindings through the same local/upvalue machinery as any other name.
func syntheticIdent(name string) token.Lexeme { return token.Lexeme{Kind: token.IDENT, Text: name} }

func (p *Parser) this(canAssign bool) {
	if p.class == nil {
		p.errorAtPrevious("Can't use 'this' outside of a class.")
		return
	}
	p.variable(false)
}

func (p *Parser) super(canAssign bool) {
	switch {
	case p.class == nil:
		p.errorAtPrevious("Can't use 'super' outside of a class.")
	case !p.class.hasSuperclass:
		p.errorAtPrevious("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENT, "Expect superclass method name.")
	name := p.identifierConstant(p.previous.Text)

	p.namedVariable(syntheticIdent("this"), false)
	if p.match(token.LPAREN) {
		argc := p.argumentList()
		p.namedVariable(syntheticIdent("super"), false)
		p.emitBytes(byte(chunk.OpSuperInvoke), name)
		p.emitByte(argc)
	} else {
		p.namedVariable(syntheticIdent("super"), false)
		p.emitBytes(byte(chunk.OpGetSuper), name)
	}
}
