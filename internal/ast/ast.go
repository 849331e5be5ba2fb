package ast

import (
	"strings"

	"github.com/xirelogy/go-monkey/internal/token"
)

// Node represents any AST node. The set of implementations is closed:
// only types in this package satisfy it.
type Node interface {
	Pos() token.Position
	Span() token.Span
	// String renders the node back to source-like text.
	String() string
	node()
}

// Statement is an executable node.
type Statement interface {
	Node
	stmtNode()
}

// Expression produces a value.
type Expression interface {
	Node
	exprNode()
}

// Program is the root node.
type Program struct {
	Statements []Statement
	NodeSpan   token.Span
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) == 0 {
		return token.Position{}
	}
	return p.Statements[0].Pos()
}
func (p *Program) Span() token.Span { return p.NodeSpan }
func (p *Program) node()            {}
func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Statements {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Statements

type LetStmt struct {
	LetPos   token.Position
	Name     *Identifier
	Value    Expression
	StmtSpan token.Span
}

func (l *LetStmt) Pos() token.Position { return l.LetPos }
func (l *LetStmt) Span() token.Span    { return l.StmtSpan }
func (l *LetStmt) node()               {}
func (l *LetStmt) stmtNode()           {}
func (l *LetStmt) String() string {
	value := ""
	if l.Value != nil {
		value = l.Value.String()
	}
	return "let " + l.Name.String() + " = " + value + ";"
}

type ReturnStmt struct {
	Return   token.Position
	Value    Expression
	StmtSpan token.Span
}

func (r *ReturnStmt) Pos() token.Position { return r.Return }
func (r *ReturnStmt) Span() token.Span    { return r.StmtSpan }
func (r *ReturnStmt) node()               {}
func (r *ReturnStmt) stmtNode()           {}
func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "return;"
	}
	return "return " + r.Value.String() + ";"
}

type ExprStmt struct {
	Expression Expression
	Start      token.Position
	StmtSpan   token.Span
}

func (e *ExprStmt) Pos() token.Position { return e.Start }
func (e *ExprStmt) Span() token.Span    { return e.StmtSpan }
func (e *ExprStmt) node()               {}
func (e *ExprStmt) stmtNode()           {}
func (e *ExprStmt) String() string {
	if e.Expression == nil {
		return ""
	}
	return e.Expression.String()
}

type BlockStmt struct {
	LBrace     token.Position
	Statements []Statement
	BlockSpan  token.Span
}

func (b *BlockStmt) Pos() token.Position { return b.LBrace }
func (b *BlockStmt) Span() token.Span    { return b.BlockSpan }
func (b *BlockStmt) node()               {}
func (b *BlockStmt) stmtNode()           {}
func (b *BlockStmt) String() string {
	var sb strings.Builder
	for _, s := range b.Statements {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Expressions

type Identifier struct {
	Name string
	PosT token.Position
	Sp   token.Span
}

func (i *Identifier) Pos() token.Position { return i.PosT }
func (i *Identifier) Span() token.Span    { return i.Sp }
func (i *Identifier) node()               {}
func (i *Identifier) exprNode()           {}
func (i *Identifier) String() string      { return i.Name }

type IntegerLiteral struct {
	Literal string
	Value   int64
	PosT    token.Position
	Sp      token.Span
}

func (n *IntegerLiteral) Pos() token.Position { return n.PosT }
func (n *IntegerLiteral) Span() token.Span    { return n.Sp }
func (n *IntegerLiteral) node()               {}
func (n *IntegerLiteral) exprNode()           {}
func (n *IntegerLiteral) String() string      { return n.Literal }

type StringLiteral struct {
	Value string
	PosT  token.Position
	Sp    token.Span
}

func (s *StringLiteral) Pos() token.Position { return s.PosT }
func (s *StringLiteral) Span() token.Span    { return s.Sp }
func (s *StringLiteral) node()               {}
func (s *StringLiteral) exprNode()           {}
func (s *StringLiteral) String() string      { return s.Value }

type BoolLiteral struct {
	Value bool
	PosT  token.Position
	Sp    token.Span
}

func (b *BoolLiteral) Pos() token.Position { return b.PosT }
func (b *BoolLiteral) Span() token.Span    { return b.Sp }
func (b *BoolLiteral) node()               {}
func (b *BoolLiteral) exprNode()           {}
func (b *BoolLiteral) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

type PrefixExpr struct {
	Operator string
	Right    Expression
	PosT     token.Position
	Sp       token.Span
}

func (p *PrefixExpr) Pos() token.Position { return p.PosT }
func (p *PrefixExpr) Span() token.Span    { return p.Sp }
func (p *PrefixExpr) node()               {}
func (p *PrefixExpr) exprNode()           {}
func (p *PrefixExpr) String() string {
	return "(" + p.Operator + p.Right.String() + ")"
}

type InfixExpr struct {
	Left     Expression
	Operator string
	Right    Expression
	PosT     token.Position
	Sp       token.Span
}

func (i *InfixExpr) Pos() token.Position { return i.PosT }
func (i *InfixExpr) Span() token.Span    { return i.Sp }
func (i *InfixExpr) node()               {}
func (i *InfixExpr) exprNode()           {}
func (i *InfixExpr) String() string {
	return "(" + i.Left.String() + " " + i.Operator + " " + i.Right.String() + ")"
}

type IfExpr struct {
	IfPos       token.Position
	Condition   Expression
	Consequence *BlockStmt
	Alternative *BlockStmt
	Sp          token.Span
}

func (i *IfExpr) Pos() token.Position { return i.IfPos }
func (i *IfExpr) Span() token.Span    { return i.Sp }
func (i *IfExpr) node()               {}
func (i *IfExpr) exprNode()           {}
func (i *IfExpr) String() string {
	out := "if" + i.Condition.String() + " " + i.Consequence.String()
	if i.Alternative != nil {
		out += "else " + i.Alternative.String()
	}
	return out
}

type FunctionLiteral struct {
	FuncPos token.Position
	// Name is set when the literal is bound directly by a let statement.
	Name   string
	Params []*Identifier
	Body   *BlockStmt
	Sp     token.Span
}

func (f *FunctionLiteral) Pos() token.Position { return f.FuncPos }
func (f *FunctionLiteral) Span() token.Span    { return f.Sp }
func (f *FunctionLiteral) node()               {}
func (f *FunctionLiteral) exprNode()           {}
func (f *FunctionLiteral) String() string {
	params := make([]string, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	out := "fn"
	if f.Name != "" {
		out += "<" + f.Name + ">"
	}
	return out + "(" + strings.Join(params, ", ") + ") " + f.Body.String()
}

type CallExpr struct {
	Callee    Expression
	Arguments []Expression
	PosT      token.Position
	Sp        token.Span
}

func (c *CallExpr) Pos() token.Position { return c.PosT }
func (c *CallExpr) Span() token.Span    { return c.Sp }
func (c *CallExpr) node()               {}
func (c *CallExpr) exprNode()           {}
func (c *CallExpr) String() string {
	return c.Callee.String() + "(" + joinExpressions(c.Arguments) + ")"
}

type ArrayLiteral struct {
	Elements []Expression
	PosT     token.Position
	Sp       token.Span
}

func (a *ArrayLiteral) Pos() token.Position { return a.PosT }
func (a *ArrayLiteral) Span() token.Span    { return a.Sp }
func (a *ArrayLiteral) node()               {}
func (a *ArrayLiteral) exprNode()           {}
func (a *ArrayLiteral) String() string {
	return "[" + joinExpressions(a.Elements) + "]"
}

// HashPair is a single key/value entry of a hash literal, in source order.
type HashPair struct {
	Key   Expression
	Value Expression
}

type HashLiteral struct {
	Pairs []HashPair
	PosT  token.Position
	Sp    token.Span
}

func (h *HashLiteral) Pos() token.Position { return h.PosT }
func (h *HashLiteral) Span() token.Span    { return h.Sp }
func (h *HashLiteral) node()               {}
func (h *HashLiteral) exprNode()           {}
func (h *HashLiteral) String() string {
	pairs := make([]string, 0, len(h.Pairs))
	for _, p := range h.Pairs {
		pairs = append(pairs, p.Key.String()+":"+p.Value.String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type IndexExpr struct {
	Left  Expression
	Index Expression
	PosT  token.Position
	Sp    token.Span
}

func (i *IndexExpr) Pos() token.Position { return i.PosT }
func (i *IndexExpr) Span() token.Span    { return i.Sp }
func (i *IndexExpr) node()               {}
func (i *IndexExpr) exprNode()           {}
func (i *IndexExpr) String() string {
	return "(" + i.Left.String() + "[" + i.Index.String() + "])"
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, 0, len(exprs))
	for _, e := range exprs {
		parts = append(parts, e.String())
	}
	return strings.Join(parts, ", ")
}
