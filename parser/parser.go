// Package parser implements a recursive-descent parser over the token
// stream produced by the lexer, following the structure of the teacher's
// parser package (position-based Parser, peek/previous/advance/isMatch
// helpers, precedence-climbing expression methods) generalized from an
// expression-statement language to Action!'s declaration-and-routine
// grammar.
package parser

import (
	"github.com/z80ac/z80ac/ast"
	"github.com/z80ac/z80ac/token"
	"github.com/z80ac/z80ac/types"
)

var comparisonTokenTypes = []token.Type{
	token.ASSIGN, token.NEQ, token.LT, token.GT, token.LE, token.GE,
}

var additiveTokenTypes = []token.Type{token.PLUS, token.MINUS}
var multiplicativeTokenTypes = []token.Type{token.STAR, token.SLASH, token.MOD}
var bitwiseTokenTypes = []token.Type{token.AMP, token.PERCENT, token.BANG}
var typeNameTokenTypes = []token.Type{token.BYTE, token.CARD, token.INTTYPE, token.CHAR}

// Parser holds the token stream and the parser's current read position,
// one unit ahead of the token last consumed by advance.
type Parser struct {
	tokens   []token.Token
	position int
}

// New returns a Parser over tokens, which must end with an EOF token.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens, position: 0}
}

func (p *Parser) peek() token.Token    { return p.tokens[p.position] }
func (p *Parser) previous() token.Token { return p.tokens[p.position-1] }

func (p *Parser) advance() token.Token {
	if !p.isFinished() {
		p.position++
	}
	return p.previous()
}

func (p *Parser) isFinished() bool { return p.peek().Type == token.EOF }

func (p *Parser) checkType(t token.Type) bool {
	if p.isFinished() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) isMatch(types ...token.Type) bool {
	for _, t := range types {
		if p.checkType(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(t token.Type, format string, args ...any) (token.Token, error) {
	if p.checkType(t) {
		return p.advance(), nil
	}
	cur := p.peek()
	return token.Token{}, newSyntaxError(cur.Line, cur.Column, format, args...)
}

func (p *Parser) isTypeNameAhead() bool {
	for _, t := range typeNameTokenTypes {
		if p.checkType(t) {
			return true
		}
	}
	return false
}

// ParseUnit parses the whole token stream into a translation unit. Parsing
// aborts on the first syntax error (single-shot compile, Section 4.2).
func (p *Parser) ParseUnit() (*ast.Unit, error) {
	unit := &ast.Unit{}
	for !p.isFinished() {
		if p.checkType(token.PROC) {
			routine, err := p.procDecl()
			if err != nil {
				return nil, err
			}
			unit.Routines = append(unit.Routines, routine)
			continue
		}
		if p.checkType(token.FUNC) {
			routine, err := p.funcDecl()
			if err != nil {
				return nil, err
			}
			unit.Routines = append(unit.Routines, routine)
			continue
		}
		if p.isTypeNameAhead() {
			decls, err := p.varDecl()
			if err != nil {
				return nil, err
			}
			unit.Globals = append(unit.Globals, decls...)
			continue
		}
		cur := p.peek()
		return nil, newSyntaxError(cur.Line, cur.Column, "expected a declaration, found %q", cur.Lexeme)
	}
	return unit, nil
}

func (p *Parser) typeName() (types.Type, error) {
	cur := p.peek()
	switch {
	case p.isMatch(token.BYTE):
		return types.Byte, nil
	case p.isMatch(token.CARD):
		return types.Card, nil
	case p.isMatch(token.INTTYPE):
		return types.Int, nil
	case p.isMatch(token.CHAR):
		return types.Char, nil
	}
	return types.Void, newSyntaxError(cur.Line, cur.Column, "expected a type name, found %q", cur.Lexeme)
}

// varDecl parses `typename ident ("," ident)*` or `typename ARRAY ident "(" INT ")"`,
// splitting a comma list into one VarDecl per name.
func (p *Parser) varDecl() ([]ast.VarDecl, error) {
	base, err := p.typeName()
	if err != nil {
		return nil, err
	}
	if p.isMatch(token.ARRAY) {
		nameTok, err := p.consume(token.IDENT, "expected array name")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.LPAREN, "expected '(' after array name"); err != nil {
			return nil, err
		}
		lenTok, err := p.consume(token.INT, "expected array length")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "expected ')' after array length"); err != nil {
			return nil, err
		}
		length := int(lenTok.Literal.(int64))
		var arrType types.Type
		if base.Width() == 1 {
			arrType = types.ByteArray(length)
		} else {
			arrType = types.CardArray(length)
		}
		return []ast.VarDecl{{Name: nameTok.Lexeme, Type: arrType, Line: nameTok.Line}}, nil
	}

	var decls []ast.VarDecl
	for {
		nameTok, err := p.consume(token.IDENT, "expected variable name")
		if err != nil {
			return nil, err
		}
		decls = append(decls, ast.VarDecl{Name: nameTok.Lexeme, Type: base, Line: nameTok.Line})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	return decls, nil
}

func (p *Parser) params() ([]ast.Param, error) {
	var params []ast.Param
	if p.checkType(token.RPAREN) {
		return params, nil
	}
	for {
		t, err := p.typeName()
		if err != nil {
			return nil, err
		}
		nameTok, err := p.consume(token.IDENT, "expected parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{Name: nameTok.Lexeme, Type: t})
		if !p.isMatch(token.COMMA) {
			break
		}
	}
	return params, nil
}

func (p *Parser) procDecl() (*ast.Routine, error) {
	procTok, err := p.consume(token.PROC, "expected PROC")
	if err != nil {
		return nil, err
	}
	nameTok, err := p.consume(token.IDENT, "expected procedure name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "expected '(' after procedure name"); err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after parameter list"); err != nil {
		return nil, err
	}
	locals, body, err := p.procBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RETURN, "expected RETURN to close PROC %s", nameTok.Lexeme); err != nil {
		return nil, err
	}
	return &ast.Routine{
		Name:       nameTok.Lexeme,
		IsFunc:     false,
		ReturnType: types.Void,
		Params:     params,
		Locals:     locals,
		Body:       body,
		Line:       procTok.Line,
	}, nil
}

func (p *Parser) funcDecl() (*ast.Routine, error) {
	funcTok, err := p.consume(token.FUNC, "expected FUNC")
	if err != nil {
		return nil, err
	}
	retType, err := p.typeName()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.consume(token.IDENT, "expected function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "expected '(' after function name"); err != nil {
		return nil, err
	}
	params, err := p.params()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after parameter list"); err != nil {
		return nil, err
	}
	locals, body, err := p.funcBody()
	if err != nil {
		return nil, err
	}
	return &ast.Routine{
		Name:       nameTok.Lexeme,
		IsFunc:     true,
		ReturnType: retType,
		Params:     params,
		Locals:     locals,
		Body:       body,
		Line:       funcTok.Line,
	}, nil
}

// localVars parses the `localvars*` prefix shared by procBody and funcBody:
// declarations look exactly like leading type-name tokens, so they're
// consumed greedily before the first statement is attempted.
func (p *Parser) localVars() ([]ast.VarDecl, error) {
	var locals []ast.VarDecl
	for p.isTypeNameAhead() {
		decls, err := p.varDecl()
		if err != nil {
			return nil, err
		}
		locals = append(locals, decls...)
	}
	return locals, nil
}

// procBody parses a PROC's `localvars* stmt*`. A PROC's trailing RETURN is
// a bare closing keyword outside of stmt* (Section 4.2's procdecl
// production), so the top-level statement loop stops as soon as RETURN is
// seen, leaving it for procDecl to consume. A RETURN nested inside an
// IF/WHILE/FOR/UNTIL body is unaffected -- those use their own stmtList
// terminator sets, which don't include RETURN.
func (p *Parser) procBody() ([]ast.VarDecl, []ast.Stmt, error) {
	locals, err := p.localVars()
	if err != nil {
		return nil, nil, err
	}
	stmts, err := p.stmtList(token.RETURN, token.ELSEIF, token.ELSE, token.FI, token.OD)
	if err != nil {
		return nil, nil, err
	}
	return locals, stmts, nil
}

// funcBody parses a FUNC's `localvars* stmt*`. A FUNC has no separate
// trailing RETURN production -- RETURN(expr) is an ordinary statement that
// may appear anywhere in stmt*, including as its last statement -- so the
// loop runs until the next declaration (or EOF) rather than stopping at
// RETURN.
func (p *Parser) funcBody() ([]ast.VarDecl, []ast.Stmt, error) {
	locals, err := p.localVars()
	if err != nil {
		return nil, nil, err
	}
	var stmts []ast.Stmt
	for !p.isFinished() && !p.isTypeNameAhead() && !p.checkType(token.PROC) && !p.checkType(token.FUNC) {
		s, err := p.statement()
		if err != nil {
			return nil, nil, err
		}
		stmts = append(stmts, s)
	}
	return locals, stmts, nil
}

// stmtList parses statements until the current token is one of the
// caller-supplied terminators (or EOF).
func (p *Parser) stmtList(terminators ...token.Type) ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.isFinished() {
		stop := false
		for _, t := range terminators {
			if p.checkType(t) {
				stop = true
				break
			}
		}
		if stop {
			break
		}
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

func (p *Parser) statement() (ast.Stmt, error) {
	switch {
	case p.checkType(token.IF):
		return p.ifStmt()
	case p.checkType(token.WHILE):
		return p.whileStmt()
	case p.checkType(token.FOR):
		return p.forStmt()
	case p.checkType(token.UNTIL):
		return p.untilStmt()
	case p.checkType(token.RETURN):
		return p.returnStmt()
	case p.checkType(token.IDENT):
		return p.assignOrCallStmt()
	}
	cur := p.peek()
	return nil, newSyntaxError(cur.Line, cur.Column, "unexpected token %q in statement", cur.Lexeme)
}

func (p *Parser) ifStmt() (ast.Stmt, error) {
	ifTok, _ := p.consume(token.IF, "expected IF")
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.THEN, "expected THEN after IF condition"); err != nil {
		return nil, err
	}
	thenBody, err := p.stmtList(token.ELSEIF, token.ELSE, token.FI)
	if err != nil {
		return nil, err
	}

	var elseIfs []ast.ElseIf
	for p.checkType(token.ELSEIF) {
		p.advance()
		eiCond, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.THEN, "expected THEN after ELSEIF condition"); err != nil {
			return nil, err
		}
		eiBody, err := p.stmtList(token.ELSEIF, token.ELSE, token.FI)
		if err != nil {
			return nil, err
		}
		elseIfs = append(elseIfs, ast.ElseIf{Cond: eiCond, Body: eiBody})
	}

	var elseBody []ast.Stmt
	hasElse := false
	if p.isMatch(token.ELSE) {
		hasElse = true
		elseBody, err = p.stmtList(token.FI)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.FI, "expected FI to close IF"); err != nil {
		return nil, err
	}
	return ast.NewIf(cond, thenBody, elseIfs, elseBody, hasElse, ifTok.Line), nil
}

func (p *Parser) whileStmt() (ast.Stmt, error) {
	whileTok, _ := p.consume(token.WHILE, "expected WHILE")
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.DO, "expected DO after WHILE condition"); err != nil {
		return nil, err
	}
	body, err := p.stmtList(token.OD)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.OD, "expected OD to close WHILE"); err != nil {
		return nil, err
	}
	return ast.NewWhile(cond, body, whileTok.Line), nil
}

func (p *Parser) forStmt() (ast.Stmt, error) {
	forTok, _ := p.consume(token.FOR, "expected FOR")
	nameTok, err := p.consume(token.IDENT, "expected loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.ASSIGN, "expected '=' after loop variable"); err != nil {
		return nil, err
	}
	from, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.TO, "expected TO after FOR start value"); err != nil {
		return nil, err
	}
	to, err := p.expression()
	if err != nil {
		return nil, err
	}
	var step ast.Expression
	if p.isMatch(token.STEP) {
		step, err = p.expression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.consume(token.DO, "expected DO after FOR range"); err != nil {
		return nil, err
	}
	body, err := p.stmtList(token.OD)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.OD, "expected OD to close FOR"); err != nil {
		return nil, err
	}
	return ast.NewFor(nameTok.Lexeme, from, to, step, body, forTok.Line), nil
}

func (p *Parser) untilStmt() (ast.Stmt, error) {
	untilTok, _ := p.consume(token.UNTIL, "expected UNTIL")
	cond, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.DO, "expected DO after UNTIL condition"); err != nil {
		return nil, err
	}
	body, err := p.stmtList(token.OD)
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.OD, "expected OD to close UNTIL"); err != nil {
		return nil, err
	}
	return ast.NewUntil(cond, body, untilTok.Line), nil
}

func (p *Parser) returnStmt() (ast.Stmt, error) {
	retTok, _ := p.consume(token.RETURN, "expected RETURN")
	if !p.isMatch(token.LPAREN) {
		return ast.NewReturn(nil, retTok.Line), nil
	}
	value, err := p.expression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "expected ')' after RETURN value"); err != nil {
		return nil, err
	}
	return ast.NewReturn(value, retTok.Line), nil
}

// assignOrCallStmt parses the three statement forms that start with an
// identifier: a plain assignment, an indexed assignment, or a call used
// as a statement. All three share an ident ( "(" ... ")" )? prefix, so
// they're disambiguated by what follows.
func (p *Parser) assignOrCallStmt() (ast.Stmt, error) {
	nameTok, _ := p.consume(token.IDENT, "expected identifier")

	if p.isMatch(token.ASSIGN) {
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		return ast.NewAssign(nameTok.Lexeme, value, nameTok.Line), nil
	}

	if !p.isMatch(token.LPAREN) {
		cur := p.peek()
		return nil, newSyntaxError(cur.Line, cur.Column, "expected '=' or '(' after %q", nameTok.Lexeme)
	}

	var args []ast.Expression
	if !p.checkType(token.RPAREN) {
		for {
			arg, err := p.expression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.isMatch(token.COMMA) {
				break
			}
		}
	}
	if _, err := p.consume(token.RPAREN, "expected ')' to close argument list"); err != nil {
		return nil, err
	}

	if p.isMatch(token.ASSIGN) {
		if len(args) != 1 {
			cur := p.previous()
			return nil, newSyntaxError(cur.Line, cur.Column, "array index assignment takes exactly one index expression")
		}
		value, err := p.expression()
		if err != nil {
			return nil, err
		}
		return ast.NewIndexAssign(nameTok.Lexeme, args[0], value, nameTok.Line), nil
	}

	return ast.NewCallStmt(nameTok.Lexeme, args, nameTok.Line), nil
}

// expression is the entry point for expression parsing: the lowest
// precedence level, OR.
func (p *Parser) expression() (ast.Expression, error) {
	return p.or()
}

func (p *Parser) or() (ast.Expression, error) {
	left, err := p.andXor()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.OR) {
		tok := p.advance()
		right, err := p.andXor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(ast.OpOr, left, right, tok)
	}
	return left, nil
}

func (p *Parser) andXor() (ast.Expression, error) {
	left, err := p.comparison()
	if err != nil {
		return nil, err
	}
	for p.checkType(token.AND) || p.checkType(token.XOR) {
		tok := p.advance()
		right, err := p.comparison()
		if err != nil {
			return nil, err
		}
		op := ast.OpAnd
		if tok.Type == token.XOR {
			op = ast.OpXor
		}
		left = ast.NewBinary(op, left, right, tok)
	}
	return left, nil
}

func (p *Parser) comparison() (ast.Expression, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	for p.isMatchAny(comparisonTokenTypes) {
		tok := p.previous()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinary(comparisonOp(tok.Type), left, right, tok)
	}
	return left, nil
}

func (p *Parser) additive() (ast.Expression, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.isMatchAny(additiveTokenTypes) {
		tok := p.previous()
		right, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		op := ast.OpAdd
		if tok.Type == token.MINUS {
			op = ast.OpSub
		}
		left = ast.NewBinary(op, left, right, tok)
	}
	return left, nil
}

func (p *Parser) multiplicative() (ast.Expression, error) {
	left, err := p.bitwise()
	if err != nil {
		return nil, err
	}
	for p.isMatchAny(multiplicativeTokenTypes) {
		tok := p.previous()
		right, err := p.bitwise()
		if err != nil {
			return nil, err
		}
		var op ast.BinOp
		switch tok.Type {
		case token.STAR:
			op = ast.OpMul
		case token.SLASH:
			op = ast.OpDiv
		default:
			op = ast.OpMod
		}
		left = ast.NewBinary(op, left, right, tok)
	}
	return left, nil
}

func (p *Parser) bitwise() (ast.Expression, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isMatchAny(bitwiseTokenTypes) {
		tok := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		var op ast.BinOp
		switch tok.Type {
		case token.AMP:
			op = ast.OpBitAnd
		case token.PERCENT:
			op = ast.OpBitOr
		default:
			op = ast.OpBitXor
		}
		left = ast.NewBinary(op, left, right, tok)
	}
	return left, nil
}

func (p *Parser) unary() (ast.Expression, error) {
	switch {
	case p.checkType(token.MINUS):
		tok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.OpNeg, operand, tok.Line), nil
	case p.checkType(token.NOT):
		tok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewUnary(ast.OpNot, operand, tok.Line), nil
	case p.checkType(token.CARET):
		tok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewDeref(operand, tok.Line), nil
	case p.checkType(token.AT):
		tok := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return ast.NewAddrOf(operand, tok.Line), nil
	}
	return p.primary()
}

func (p *Parser) primary() (ast.Expression, error) {
	switch {
	case p.checkType(token.INT):
		tok := p.advance()
		return ast.NewIntLiteral(tok.Literal.(int64), tok.Line), nil
	case p.checkType(token.CHARLIT):
		tok := p.advance()
		return ast.NewCharLiteral(byte(tok.Literal.(int64)), tok.Line), nil
	case p.checkType(token.STRING):
		tok := p.advance()
		return ast.NewStringLiteral(tok.Literal.(string), tok.Line), nil
	case p.checkType(token.LPAREN):
		p.advance()
		inner, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "expected ')' to close grouped expression"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.checkType(token.IDENT):
		tok := p.advance()
		// ident "(" expr ")" is ambiguous at parse time: Action! uses the
		// same syntax for a one-argument call and an array index, and only
		// the symbol table (which knows whether the name is a routine or
		// an array) can tell them apart. Parse both shapes as CallExpr and
		// let resolution rewrite single-argument calls on array names into
		// Index nodes.
		if p.isMatch(token.LPAREN) {
			var args []ast.Expression
			if !p.checkType(token.RPAREN) {
				for {
					arg, err := p.expression()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
					if !p.isMatch(token.COMMA) {
						break
					}
				}
			}
			if _, err := p.consume(token.RPAREN, "expected ')' to close argument list"); err != nil {
				return nil, err
			}
			return ast.NewCallExpr(tok.Lexeme, args, tok.Line), nil
		}
		return ast.NewIdentifier(tok.Lexeme, tok.Line), nil
	}
	cur := p.peek()
	return nil, newSyntaxError(cur.Line, cur.Column, "expected an expression, found %q", cur.Lexeme)
}

func (p *Parser) isMatchAny(types []token.Type) bool {
	for _, t := range types {
		if p.checkType(t) {
			p.advance()
			return true
		}
	}
	return false
}

func comparisonOp(t token.Type) ast.BinOp {
	switch t {
	case token.ASSIGN:
		return ast.OpEq
	case token.NEQ:
		return ast.OpNeq
	case token.LT:
		return ast.OpLt
	case token.GT:
		return ast.OpGt
	case token.LE:
		return ast.OpLe
	default:
		return ast.OpGe
	}
}
