package compiler

import (
	"sort"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-monkey/internal/ast"
	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/token"
)

var log = commonlog.GetLogger("monkey.compiler")

// Compiler turns an AST into bytecode. A Compiler built with NewWithState
// shares its symbol table and constant pool with earlier passes, which is
// how a REPL keeps globals alive between inputs.
type Compiler struct {
	constants   []object.Value
	symbolTable *SymbolTable

	scopes     []compilationScope
	scopeIndex int
}

// New creates a compiler with a fresh global symbol table holding the builtins.
func New() *Compiler {
	return NewWithState(NewGlobalSymbolTable(), []object.Value{})
}

// NewWithState continues from the symbol table and constant pool of an earlier pass.
func NewWithState(s *SymbolTable, constants []object.Value) *Compiler {
	return &Compiler{
		constants:   constants,
		symbolTable: s,
		scopes:      []compilationScope{newCompilationScope()},
		scopeIndex:  0,
	}
}

// Bytecode returns the outermost instructions and the constant pool.
func (c *Compiler) Bytecode() *Bytecode {
	return &Bytecode{
		Instructions: c.currentInstructions(),
		Constants:    c.constants,
	}
}

// SymbolTable returns the table currently in effect.
func (c *Compiler) SymbolTable() *SymbolTable {
	return c.symbolTable
}

// Compile emits code for node and everything below it.
func (c *Compiler) Compile(node ast.Node) error {
	switch n := node.(type) {
	case *ast.Program:
		for _, s := range n.Statements {
			if err := c.Compile(s); err != nil {
				return err
			}
		}

	case *ast.ExprStmt:
		if err := c.Compile(n.Expression); err != nil {
			return err
		}
		c.emit(OP_POP)

	case *ast.BlockStmt:
		for _, s := range n.Statements {
			if err := c.Compile(s); err != nil {
				return err
			}
		}

	case *ast.LetStmt:
		// Defined before the value so the value can refer to itself.
		symbol := c.symbolTable.Define(n.Name.Name)
		if err := c.checkOperand(n, symbol.Index, c.storeWidth(symbol), "binding %s", n.Name.Name); err != nil {
			return err
		}
		if err := c.Compile(n.Value); err != nil {
			return err
		}
		if symbol.Scope == GlobalScope {
			c.emit(OP_SET_GLOBAL, symbol.Index)
		} else {
			c.emit(OP_SET_LOCAL, symbol.Index)
		}

	case *ast.ReturnStmt:
		if n.Value == nil {
			c.emit(OP_RETURN)
			return nil
		}
		if err := c.Compile(n.Value); err != nil {
			return err
		}
		c.emit(OP_RETURN_VALUE)

	case *ast.Identifier:
		symbol, ok := c.symbolTable.Resolve(n.Name)
		if !ok {
			return newCompileError(ErrUndefinedVariable, n.Pos(), "undefined variable %s", n.Name)
		}
		c.loadSymbol(symbol)

	case *ast.IntegerLiteral:
		return c.emitConstant(n, object.Integer(n.Value))

	case *ast.StringLiteral:
		return c.emitConstant(n, object.String(n.Value))

	case *ast.BoolLiteral:
		if n.Value {
			c.emit(OP_TRUE)
		} else {
			c.emit(OP_FALSE)
		}

	case *ast.PrefixExpr:
		if err := c.Compile(n.Right); err != nil {
			return err
		}
		switch n.Operator {
		case "!":
			c.emit(OP_NOT)
		case "-":
			c.emit(OP_NEG)
		default:
			return newCompileError(ErrUnknownOperator, n.Pos(), "unknown operator %s", n.Operator)
		}

	case *ast.InfixExpr:
		return c.compileInfix(n)

	case *ast.IfExpr:
		return c.compileIf(n)

	case *ast.ArrayLiteral:
		if err := c.checkOperand(n, len(n.Elements), 2, "array of %d elements", len(n.Elements)); err != nil {
			return err
		}
		for _, el := range n.Elements {
			if err := c.Compile(el); err != nil {
				return err
			}
		}
		c.emit(OP_ARRAY, len(n.Elements))

	case *ast.HashLiteral:
		return c.compileHash(n)

	case *ast.IndexExpr:
		if err := c.Compile(n.Left); err != nil {
			return err
		}
		if err := c.Compile(n.Index); err != nil {
			return err
		}
		c.emit(OP_INDEX)

	case *ast.FunctionLiteral:
		return c.compileFunction(n)

	case *ast.CallExpr:
		if err := c.checkOperand(n, len(n.Arguments), 1, "call with %d arguments", len(n.Arguments)); err != nil {
			return err
		}
		if err := c.Compile(n.Callee); err != nil {
			return err
		}
		for _, a := range n.Arguments {
			if err := c.Compile(a); err != nil {
				return err
			}
		}
		c.emit(OP_CALL, len(n.Arguments))

	default:
		return newCompileError(ErrUnsupportedNode, nodePos(node), "unsupported node type %T", node)
	}
	return nil
}

func (c *Compiler) compileInfix(n *ast.InfixExpr) error {
	// a < b is compiled as b > a.
	if n.Operator == "<" {
		if err := c.Compile(n.Right); err != nil {
			return err
		}
		if err := c.Compile(n.Left); err != nil {
			return err
		}
		c.emit(OP_GT)
		return nil
	}

	if err := c.Compile(n.Left); err != nil {
		return err
	}
	if err := c.Compile(n.Right); err != nil {
		return err
	}
	switch n.Operator {
	case "+":
		c.emit(OP_ADD)
	case "-":
		c.emit(OP_SUB)
	case "*":
		c.emit(OP_MUL)
	case "/":
		c.emit(OP_DIV)
	case ">":
		c.emit(OP_GT)
	case "==":
		c.emit(OP_EQ)
	case "!=":
		c.emit(OP_NEQ)
	default:
		return newCompileError(ErrUnknownOperator, n.Pos(), "unknown operator %s", n.Operator)
	}
	return nil
}

func (c *Compiler) compileIf(n *ast.IfExpr) error {
	if err := c.Compile(n.Condition); err != nil {
		return err
	}

	// Placeholder targets, patched once the branch lengths are known.
	jumpIfFalsePos := c.emit(OP_JUMP_IF_FALSE, 9999)

	if err := c.Compile(n.Consequence); err != nil {
		return err
	}
	c.keepBranchValue()

	jumpPos := c.emit(OP_JUMP, 9999)
	c.changeOperand(jumpIfFalsePos, len(c.currentInstructions()))

	if n.Alternative == nil {
		c.emit(OP_NULL)
	} else {
		if err := c.Compile(n.Alternative); err != nil {
			return err
		}
		c.keepBranchValue()
	}
	c.changeOperand(jumpPos, len(c.currentInstructions()))
	return c.checkOperand(n, len(c.currentInstructions()), 2, "jump target %d", len(c.currentInstructions()))
}

// keepBranchValue leaves exactly one value for an if branch. A branch that
// ends in a let, or is empty, yields null.
func (c *Compiler) keepBranchValue() {
	switch {
	case c.lastInstructionIs(OP_POP):
		c.removeLastPop()
	case c.lastInstructionIs(OP_RETURN_VALUE), c.lastInstructionIs(OP_RETURN):
	default:
		c.emit(OP_NULL)
	}
}

func (c *Compiler) compileHash(n *ast.HashLiteral) error {
	if err := c.checkOperand(n, len(n.Pairs), 2, "hash of %d pairs", len(n.Pairs)); err != nil {
		return err
	}
	pairs := make([]ast.HashPair, len(n.Pairs))
	copy(pairs, n.Pairs)
	// Sorted by rendering so the constant pool order is reproducible.
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Key.String() < pairs[j].Key.String()
	})

	for _, p := range pairs {
		if err := c.Compile(p.Key); err != nil {
			return err
		}
		if err := c.Compile(p.Value); err != nil {
			return err
		}
	}
	c.emit(OP_HASH, len(pairs))
	return nil
}

func (c *Compiler) compileFunction(n *ast.FunctionLiteral) error {
	if err := c.checkOperand(n, len(n.Params), 1, "function with %d parameters", len(n.Params)); err != nil {
		return err
	}
	c.enterScope()

	if n.Name != "" {
		c.symbolTable.DefineFunctionName(n.Name)
	}
	for _, p := range n.Params {
		c.symbolTable.Define(p.Name)
	}

	if err := c.Compile(n.Body); err != nil {
		return err
	}

	if c.lastInstructionIs(OP_POP) {
		c.replaceLastPopWithReturn()
	}
	if !c.lastInstructionIs(OP_RETURN_VALUE) && !c.lastInstructionIs(OP_RETURN) {
		c.emit(OP_RETURN)
	}

	// Both are only reachable while the function's table is current.
	freeSymbols := c.symbolTable.FreeSymbols
	numLocals := c.symbolTable.NumDefinitions()
	if err := c.checkOperand(n, numLocals, 1, "function with %d locals", numLocals); err != nil {
		return err
	}
	if err := c.checkOperand(n, len(freeSymbols), 1, "closure over %d free variables", len(freeSymbols)); err != nil {
		return err
	}

	instructions, err := c.leaveScope()
	if err != nil {
		return err
	}

	for _, s := range freeSymbols {
		c.loadSymbol(s)
	}

	fn := &bytecode.Prototype{
		Name:          n.Name,
		Instructions:  instructions,
		NumLocals:     numLocals,
		NumParameters: len(n.Params),
	}
	idx := c.addConstant(object.CompiledFunction(fn))
	if err := c.checkOperand(n, idx, 2, "constant %d", idx); err != nil {
		return err
	}
	c.emit(OP_CLOSURE, idx, len(freeSymbols))
	return nil
}

func (c *Compiler) loadSymbol(s Symbol) {
	switch s.Scope {
	case GlobalScope:
		c.emit(OP_GET_GLOBAL, s.Index)
	case LocalScope:
		c.emit(OP_GET_LOCAL, s.Index)
	case BuiltinScope:
		c.emit(OP_GET_BUILTIN, s.Index)
	case FreeScope:
		c.emit(OP_GET_FREE, s.Index)
	case FunctionScope:
		c.emit(OP_CURRENT_CLOSURE)
	}
}

func (c *Compiler) storeWidth(s Symbol) int {
	if s.Scope == GlobalScope {
		return 2
	}
	return 1
}

func (c *Compiler) emitConstant(n ast.Node, v object.Value) error {
	idx := c.addConstant(v)
	if err := c.checkOperand(n, idx, 2, "constant %d", idx); err != nil {
		return err
	}
	c.emit(OP_CONST, idx)
	return nil
}

func (c *Compiler) addConstant(v object.Value) int {
	c.constants = append(c.constants, v)
	idx := len(c.constants) - 1
	log.Debugf("constant %d: %s", idx, v.Inspect())
	return idx
}

// checkOperand rejects values that do not fit in an operand of the given width.
func (c *Compiler) checkOperand(n ast.Node, v int, width int, format string, args ...any) error {
	if v <= bytecode.MaxOperand(width) {
		return nil
	}
	err := newCompileError(ErrOperandOverflow, n.Pos(), format, args...)
	err.Message += " exceeds operand range"
	return err
}

func (c *Compiler) emit(op byte, operands ...int) int {
	ins := bytecode.Make(op, operands...)
	pos := c.addInstruction(ins)
	c.scopes[c.scopeIndex].record(op, pos)
	return pos
}

func (c *Compiler) addInstruction(ins Instructions) int {
	scope := &c.scopes[c.scopeIndex]
	pos := len(scope.instructions)
	scope.instructions = append(scope.instructions, ins...)
	return pos
}

func (c *Compiler) currentInstructions() Instructions {
	return c.scopes[c.scopeIndex].instructions
}

func (c *Compiler) lastInstructionIs(op byte) bool {
	return c.scopes[c.scopeIndex].lastIs(op)
}

func (c *Compiler) removeLastPop() {
	c.scopes[c.scopeIndex].removeLast()
}

func (c *Compiler) replaceLastPopWithReturn() {
	scope := &c.scopes[c.scopeIndex]
	lastPos := scope.lastInstruction.Position
	c.replaceInstruction(lastPos, bytecode.Make(OP_RETURN_VALUE))
	scope.lastInstruction.Opcode = OP_RETURN_VALUE
}

// replaceInstruction overwrites bytes in place; ins must have the same
// width as the instruction it replaces.
func (c *Compiler) replaceInstruction(pos int, ins Instructions) {
	copy(c.scopes[c.scopeIndex].instructions[pos:], ins)
}

func (c *Compiler) changeOperand(opPos int, operand int) {
	op := c.currentInstructions()[opPos]
	c.replaceInstruction(opPos, bytecode.Make(op, operand))
}

func (c *Compiler) enterScope() {
	c.scopes = append(c.scopes, newCompilationScope())
	c.scopeIndex++
	c.symbolTable = NewEnclosedSymbolTable(c.symbolTable)
	log.Debugf("enter scope %d", c.scopeIndex)
}

func (c *Compiler) leaveScope() (Instructions, error) {
	if c.scopeIndex == 0 || c.symbolTable.Outer == nil {
		return nil, newCompileError(ErrOutermostScope, token.Position{}, "cannot leave outermost scope")
	}
	instructions := c.currentInstructions()

	c.scopes = c.scopes[:len(c.scopes)-1]
	c.scopeIndex--
	c.symbolTable = c.symbolTable.Outer
	log.Debugf("leave scope %d (%d bytes)", c.scopeIndex+1, len(instructions))

	return instructions, nil
}

func nodePos(n ast.Node) token.Position {
	if n == nil {
		return token.Position{}
	}
	return n.Pos()
}
