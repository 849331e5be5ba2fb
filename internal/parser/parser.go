package parser

import (
	"fmt"
	"strconv"

	"github.com/xirelogy/go-monkey/internal/ast"
	"github.com/xirelogy/go-monkey/internal/lexer"
	"github.com/xirelogy/go-monkey/internal/token"
)

type Parser struct {
	l         *lexer.Lexer
	curToken  token.Token
	peekToken token.Token
	errors    []string
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l:      l,
		errors: []string{},
	}
	// Read two tokens, so curToken and peekToken are set
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// ParseProgram parses statements until EOF. Each statement parser leaves
// curToken on the last token it consumed.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}

	for p.curToken.Type != token.EOF {
		if p.curToken.Type == token.Semicolon {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	if len(prog.Statements) > 0 {
		prog.NodeSpan = token.Span{Start: prog.Statements[0].Span().Start, End: prog.Statements[len(prog.Statements)-1].Span().End}
	}
	return prog
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.Let:
		return p.parseLet()
	case token.Return:
		return p.parseReturn()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseLet() ast.Statement {
	stmt := &ast.LetStmt{LetPos: p.curToken.Pos}
	if !p.expectPeek(token.Ident) {
		return nil
	}
	stmt.Name = &ast.Identifier{Name: p.curToken.Literal, PosT: p.curToken.Pos, Sp: p.tokenSpan()}
	if !p.expectPeek(token.Assign) {
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(lowest)
	if stmt.Value == nil {
		return nil
	}
	if fn, ok := stmt.Value.(*ast.FunctionLiteral); ok {
		fn.Name = stmt.Name.Name
	}
	if p.peekToken.Type == token.Semicolon {
		p.nextToken()
	}
	stmt.StmtSpan = token.Span{Start: stmt.LetPos, End: p.curToken.Pos}
	return stmt
}

func (p *Parser) parseReturn() ast.Statement {
	ret := &ast.ReturnStmt{Return: p.curToken.Pos}
	if p.peekToken.Type == token.Semicolon || p.peekToken.Type == token.RBrace || p.peekToken.Type == token.EOF {
		if p.peekToken.Type == token.Semicolon {
			p.nextToken()
		}
		ret.StmtSpan = token.Span{Start: ret.Return, End: p.curToken.Pos}
		return ret
	}
	p.nextToken()
	ret.Value = p.parseExpression(lowest)
	if ret.Value == nil {
		return nil
	}
	if p.peekToken.Type == token.Semicolon {
		p.nextToken()
	}
	ret.StmtSpan = token.Span{Start: ret.Return, End: p.curToken.Pos}
	return ret
}

func (p *Parser) parseExprStatement() ast.Statement {
	stmt := &ast.ExprStmt{Start: p.curToken.Pos}
	stmt.Expression = p.parseExpression(lowest)
	if stmt.Expression == nil {
		return nil
	}
	stmt.StmtSpan = token.Span{Start: stmt.Start, End: stmt.Expression.Span().End}
	if p.peekToken.Type == token.Semicolon {
		p.nextToken()
	}
	return stmt
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	block := &ast.BlockStmt{LBrace: p.curToken.Pos}
	p.nextToken()
	for p.curToken.Type != token.RBrace && p.curToken.Type != token.EOF {
		if p.curToken.Type == token.Semicolon {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}
	if p.curToken.Type != token.RBrace {
		p.errorf(p.curToken.Pos, "expected '}' to close block")
	}
	block.BlockSpan = token.Span{Start: block.LBrace, End: p.curToken.Pos}
	return block
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	var left ast.Expression

	switch p.curToken.Type {
	case token.Ident:
		left = &ast.Identifier{Name: p.curToken.Literal, PosT: p.curToken.Pos, Sp: p.tokenSpan()}
	case token.Int:
		left = p.parseIntegerLiteral()
	case token.String:
		left = &ast.StringLiteral{Value: p.curToken.Literal, PosT: p.curToken.Pos, Sp: p.tokenSpan()}
	case token.True:
		left = &ast.BoolLiteral{Value: true, PosT: p.curToken.Pos, Sp: p.tokenSpan()}
	case token.False:
		left = &ast.BoolLiteral{Value: false, PosT: p.curToken.Pos, Sp: p.tokenSpan()}
	case token.Bang, token.Minus:
		left = p.parsePrefixExpression()
	case token.LParen:
		p.nextToken()
		left = p.parseExpression(lowest)
		if !p.expectPeek(token.RParen) {
			return nil
		}
	case token.If:
		left = p.parseIfExpression()
	case token.Function:
		left = p.parseFunctionLiteral()
	case token.LBracket:
		left = p.parseArrayLiteral()
	case token.LBrace:
		left = p.parseHashLiteral()
	default:
		p.errorf(p.curToken.Pos, "no prefix parse function for %s found", p.curToken.Type)
		return nil
	}

	if left == nil {
		return nil
	}

	for p.peekToken.Type != token.Semicolon && precedence < p.peekPrecedence() {
		p.nextToken()
		switch p.curToken.Type {
		case token.Plus, token.Minus, token.Star, token.Slash,
			token.Equal, token.NotEqual, token.Less, token.Greater:
			left = p.parseInfixExpression(left)
		case token.LParen:
			left = p.parseCallExpression(left)
		case token.LBracket:
			left = p.parseIndexExpression(left)
		default:
			return left
		}
		if left == nil {
			return nil
		}
	}

	return left
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, err := strconv.ParseInt(p.curToken.Literal, 10, 64)
	if err != nil {
		p.errorf(p.curToken.Pos, "could not parse %q as integer", p.curToken.Literal)
		return nil
	}
	return &ast.IntegerLiteral{Literal: p.curToken.Literal, Value: value, PosT: p.curToken.Pos, Sp: p.tokenSpan()}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expr := &ast.PrefixExpr{
		Operator: p.curToken.Literal,
		PosT:     p.curToken.Pos,
	}
	p.nextToken()
	expr.Right = p.parseExpression(prefixPrecedence)
	if expr.Right == nil {
		return nil
	}
	expr.Sp = token.Span{Start: expr.PosT, End: expr.Right.Span().End}
	return expr
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expr := &ast.InfixExpr{
		Left:     left,
		Operator: p.curToken.Literal,
		PosT:     p.curToken.Pos,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	expr.Right = p.parseExpression(precedence)
	if expr.Right == nil {
		return nil
	}
	expr.Sp = token.Span{Start: left.Span().Start, End: expr.Right.Span().End}
	return expr
}

func (p *Parser) parseIfExpression() ast.Expression {
	expr := &ast.IfExpr{IfPos: p.curToken.Pos}
	if !p.expectPeek(token.LParen) {
		return nil
	}
	p.nextToken()
	expr.Condition = p.parseExpression(lowest)
	if expr.Condition == nil {
		return nil
	}
	if !p.expectPeek(token.RParen) {
		return nil
	}
	if !p.expectPeek(token.LBrace) {
		return nil
	}
	expr.Consequence = p.parseBlock()

	if p.peekToken.Type == token.Else {
		p.nextToken()
		if !p.expectPeek(token.LBrace) {
			return nil
		}
		expr.Alternative = p.parseBlock()
	}
	expr.Sp = token.Span{Start: expr.IfPos, End: p.curToken.Pos}
	return expr
}

func (p *Parser) parseFunctionLiteral() ast.Expression {
	fn := &ast.FunctionLiteral{FuncPos: p.curToken.Pos}
	if !p.expectPeek(token.LParen) {
		return nil
	}
	params, ok := p.parseParamList()
	if !ok {
		return nil
	}
	fn.Params = params
	if !p.expectPeek(token.LBrace) {
		return nil
	}
	fn.Body = p.parseBlock()
	fn.Sp = token.Span{Start: fn.FuncPos, End: p.curToken.Pos}
	return fn
}

// parseParamList expects curToken on '(' and leaves it on ')'.
func (p *Parser) parseParamList() ([]*ast.Identifier, bool) {
	params := []*ast.Identifier{}
	if p.peekToken.Type == token.RParen {
		p.nextToken()
		return params, true
	}
	if !p.expectPeek(token.Ident) {
		return nil, false
	}
	params = append(params, &ast.Identifier{Name: p.curToken.Literal, PosT: p.curToken.Pos, Sp: p.tokenSpan()})
	for p.peekToken.Type == token.Comma {
		p.nextToken()
		if !p.expectPeek(token.Ident) {
			return nil, false
		}
		params = append(params, &ast.Identifier{Name: p.curToken.Literal, PosT: p.curToken.Pos, Sp: p.tokenSpan()})
	}
	if !p.expectPeek(token.RParen) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	expr := &ast.CallExpr{
		Callee: callee,
		PosT:   p.curToken.Pos,
	}
	args, ok := p.parseExpressionList(token.RParen)
	if !ok {
		return nil
	}
	expr.Arguments = args
	expr.Sp = token.Span{Start: callee.Span().Start, End: p.curToken.Pos}
	return expr
}

func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	pos := p.curToken.Pos
	p.nextToken()
	index := p.parseExpression(lowest)
	if index == nil {
		return nil
	}
	if !p.expectPeek(token.RBracket) {
		return nil
	}
	return &ast.IndexExpr{
		Left:  left,
		Index: index,
		PosT:  pos,
		Sp:    token.Span{Start: left.Span().Start, End: p.curToken.Pos},
	}
}

func (p *Parser) parseArrayLiteral() ast.Expression {
	arr := &ast.ArrayLiteral{PosT: p.curToken.Pos}
	elements, ok := p.parseExpressionList(token.RBracket)
	if !ok {
		return nil
	}
	arr.Elements = elements
	arr.Sp = token.Span{Start: arr.PosT, End: p.curToken.Pos}
	return arr
}

func (p *Parser) parseHashLiteral() ast.Expression {
	hash := &ast.HashLiteral{PosT: p.curToken.Pos}
	for p.peekToken.Type != token.RBrace {
		p.nextToken()
		key := p.parseExpression(lowest)
		if key == nil {
			return nil
		}
		if !p.expectPeek(token.Colon) {
			return nil
		}
		p.nextToken()
		value := p.parseExpression(lowest)
		if value == nil {
			return nil
		}
		hash.Pairs = append(hash.Pairs, ast.HashPair{Key: key, Value: value})
		if p.peekToken.Type != token.RBrace && !p.expectPeek(token.Comma) {
			return nil
		}
	}
	if !p.expectPeek(token.RBrace) {
		return nil
	}
	hash.Sp = token.Span{Start: hash.PosT, End: p.curToken.Pos}
	return hash
}

// parseExpressionList expects curToken on the opening delimiter and leaves it
// on end.
func (p *Parser) parseExpressionList(end token.Type) ([]ast.Expression, bool) {
	list := []ast.Expression{}
	if p.peekToken.Type == end {
		p.nextToken()
		return list, true
	}
	p.nextToken()
	exp := p.parseExpression(lowest)
	if exp == nil {
		return nil, false
	}
	list = append(list, exp)
	for p.peekToken.Type == token.Comma {
		p.nextToken() // move to comma
		p.nextToken() // move to next expression start
		exp := p.parseExpression(lowest)
		if exp == nil {
			return nil, false
		}
		list = append(list, exp)
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

// expectPeek advances when the next token has type t and records an error
// otherwise.
func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekToken.Type == t {
		p.nextToken()
		return true
	}
	p.errorf(p.peekToken.Pos, "expected next token to be %s, got %s", t, p.peekToken.Type)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return lowest
}

func (p *Parser) tokenSpan() token.Span {
	return token.Span{Start: p.curToken.Pos, End: p.curToken.Pos}
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", pos.Line, pos.Column, msg))
}

const (
	lowest = iota + 1
	equalPrecedence
	lessGreaterPrecedence
	sumPrecedence
	productPrecedence
	prefixPrecedence
	callPrecedence
	indexPrecedence
)

var precedences = map[token.Type]int{
	token.Equal:    equalPrecedence,
	token.NotEqual: equalPrecedence,
	token.Less:     lessGreaterPrecedence,
	token.Greater:  lessGreaterPrecedence,
	token.Plus:     sumPrecedence,
	token.Minus:    sumPrecedence,
	token.Star:     productPrecedence,
	token.Slash:    productPrecedence,
	token.LParen:   callPrecedence,
	token.LBracket: indexPrecedence,
}
