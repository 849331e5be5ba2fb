package compiler

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xirelogy/go-monkey/internal/ast"
	"github.com/xirelogy/go-monkey/internal/bytecode"
	_ "github.com/xirelogy/go-monkey/internal/builtins"
	"github.com/xirelogy/go-monkey/internal/lexer"
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/parser"
)

type compilerTestCase struct {
	input                string
	expectedConstants    []any
	expectedInstructions []Instructions
}

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("parser errors: %v", p.Errors())
	}
	return prog
}

func compileSource(t *testing.T, src string) *Bytecode {
	t.Helper()
	c := New()
	if err := c.Compile(parseSource(t, src)); err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return c.Bytecode()
}

func concat(parts []Instructions) Instructions {
	out := Instructions{}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func runCompilerTests(t *testing.T, tests []compilerTestCase) {
	t.Helper()
	for _, tt := range tests {
		bc := compileSource(t, tt.input)
		assertInstructions(t, tt.input, tt.expectedInstructions, bc.Instructions)
		assertConstants(t, tt.input, tt.expectedConstants, bc.Constants)
	}
}

func assertInstructions(t *testing.T, input string, expected []Instructions, actual Instructions) {
	t.Helper()
	want := concat(expected)
	if !bytes.Equal(want, actual) {
		t.Fatalf("%q: wrong instructions.\nwant=\n%s\ngot=\n%s", input, want, actual)
	}
}

func assertConstants(t *testing.T, input string, expected []any, actual []object.Value) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Fatalf("%q: wrong number of constants. got=%d, want=%d", input, len(actual), len(expected))
	}
	for i, constant := range expected {
		switch want := constant.(type) {
		case int:
			if actual[i].Kind != object.KindInteger || actual[i].Int != int64(want) {
				t.Fatalf("%q: constant %d expected %d, got %s", input, i, want, actual[i].Inspect())
			}
		case string:
			if actual[i].Kind != object.KindString || actual[i].Str != want {
				t.Fatalf("%q: constant %d expected %q, got %s", input, i, want, actual[i].Inspect())
			}
		case []Instructions:
			if actual[i].Kind != object.KindCompiledFunction {
				t.Fatalf("%q: constant %d is not a compiled function: %s", input, i, actual[i].Type())
			}
			assertInstructions(t, input, want, actual[i].Proto.Instructions)
		}
	}
}

func TestIntegerArithmetic(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             "1 + 2",
			expectedConstants: []any{1, 2},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_ADD),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "1; 2",
			expectedConstants: []any{1, 2},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_POP),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "2 / 1 * 3 - 4",
			expectedConstants: []any{2, 1, 3, 4},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_DIV),
				bytecode.Make(OP_CONST, 2),
				bytecode.Make(OP_MUL),
				bytecode.Make(OP_CONST, 3),
				bytecode.Make(OP_SUB),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "-1",
			expectedConstants: []any{1},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_NEG),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestBooleanExpressions(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             "1 > 2",
			expectedConstants: []any{1, 2},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_GT),
				bytecode.Make(OP_POP),
			},
		},
		{
			// operands swapped, comparison canonicalized to OP_GT
			input:             "1 < 2",
			expectedConstants: []any{2, 1},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_GT),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "true != false",
			expectedConstants: []any{},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_TRUE),
				bytecode.Make(OP_FALSE),
				bytecode.Make(OP_NEQ),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "!true == false",
			expectedConstants: []any{},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_TRUE),
				bytecode.Make(OP_NOT),
				bytecode.Make(OP_FALSE),
				bytecode.Make(OP_EQ),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestConditionals(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             "if (true) { 10 }; 3333;",
			expectedConstants: []any{10, 3333},
			expectedInstructions: []Instructions{
				// 0000
				bytecode.Make(OP_TRUE),
				// 0001
				bytecode.Make(OP_JUMP_IF_FALSE, 10),
				// 0004
				bytecode.Make(OP_CONST, 0),
				// 0007
				bytecode.Make(OP_JUMP, 11),
				// 0010
				bytecode.Make(OP_NULL),
				// 0011
				bytecode.Make(OP_POP),
				// 0012
				bytecode.Make(OP_CONST, 1),
				// 0015
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "if (true) { 10 } else { 20 }; 3333;",
			expectedConstants: []any{10, 20, 3333},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_TRUE),
				bytecode.Make(OP_JUMP_IF_FALSE, 10),
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_JUMP, 13),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_POP),
				bytecode.Make(OP_CONST, 2),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "if (true) { }",
			expectedConstants: []any{},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_TRUE),
				bytecode.Make(OP_JUMP_IF_FALSE, 8),
				bytecode.Make(OP_NULL),
				bytecode.Make(OP_JUMP, 9),
				bytecode.Make(OP_NULL),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestGlobalLetStatements(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             "let one = 1; let two = one; two;",
			expectedConstants: []any{1},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_SET_GLOBAL, 0),
				bytecode.Make(OP_GET_GLOBAL, 0),
				bytecode.Make(OP_SET_GLOBAL, 1),
				bytecode.Make(OP_GET_GLOBAL, 1),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestStringAndCollections(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             `"mon" + "key"`,
			expectedConstants: []any{"mon", "key"},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_ADD),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "[1, 2][0]",
			expectedConstants: []any{1, 2, 0},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_ARRAY, 2),
				bytecode.Make(OP_CONST, 2),
				bytecode.Make(OP_INDEX),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "[]",
			expectedConstants: []any{},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_ARRAY, 0),
				bytecode.Make(OP_POP),
			},
		},
		{
			// keys are emitted in sorted order regardless of source order
			input:             `{"b": 2, "a": 1}`,
			expectedConstants: []any{"a", 1, "b", 2},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_CONST, 2),
				bytecode.Make(OP_CONST, 3),
				bytecode.Make(OP_HASH, 2),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestFunctions(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             "fn() { return 5 + 10 }",
			expectedConstants: []any{5, 10, []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_ADD),
				bytecode.Make(OP_RETURN_VALUE),
			}},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 2, 0),
				bytecode.Make(OP_POP),
			},
		},
		{
			// trailing pop becomes the implicit return
			input:             "fn() { 1; 2 }",
			expectedConstants: []any{1, 2, []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_POP),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_RETURN_VALUE),
			}},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 2, 0),
				bytecode.Make(OP_POP),
			},
		},
		{
			input: "fn() { }",
			expectedConstants: []any{[]Instructions{
				bytecode.Make(OP_RETURN),
			}},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 0, 0),
				bytecode.Make(OP_POP),
			},
		},
		{
			input:             "let oneArg = fn(a) { a }; oneArg(24);",
			expectedConstants: []any{[]Instructions{
				bytecode.Make(OP_GET_LOCAL, 0),
				bytecode.Make(OP_RETURN_VALUE),
			}, 24},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 0, 0),
				bytecode.Make(OP_SET_GLOBAL, 0),
				bytecode.Make(OP_GET_GLOBAL, 0),
				bytecode.Make(OP_CONST, 1),
				bytecode.Make(OP_CALL, 1),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestLetStatementScopes(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             "fn() { let num = 55; num }",
			expectedConstants: []any{55, []Instructions{
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_SET_LOCAL, 0),
				bytecode.Make(OP_GET_LOCAL, 0),
				bytecode.Make(OP_RETURN_VALUE),
			}},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 1, 0),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestBuiltins(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input:             "len([]); push([], 1);",
			expectedConstants: []any{1},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_GET_BUILTIN, 0),
				bytecode.Make(OP_ARRAY, 0),
				bytecode.Make(OP_CALL, 1),
				bytecode.Make(OP_POP),
				bytecode.Make(OP_GET_BUILTIN, 5),
				bytecode.Make(OP_ARRAY, 0),
				bytecode.Make(OP_CONST, 0),
				bytecode.Make(OP_CALL, 2),
				bytecode.Make(OP_POP),
			},
		},
		{
			input: "fn() { len([]) }",
			expectedConstants: []any{[]Instructions{
				bytecode.Make(OP_GET_BUILTIN, 0),
				bytecode.Make(OP_ARRAY, 0),
				bytecode.Make(OP_CALL, 1),
				bytecode.Make(OP_RETURN_VALUE),
			}},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 0, 0),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestClosures(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input: "fn(a) { fn(b) { a + b } }",
			expectedConstants: []any{
				[]Instructions{
					bytecode.Make(OP_GET_FREE, 0),
					bytecode.Make(OP_GET_LOCAL, 0),
					bytecode.Make(OP_ADD),
					bytecode.Make(OP_RETURN_VALUE),
				},
				[]Instructions{
					bytecode.Make(OP_GET_LOCAL, 0),
					bytecode.Make(OP_CLOSURE, 0, 1),
					bytecode.Make(OP_RETURN_VALUE),
				},
			},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 1, 0),
				bytecode.Make(OP_POP),
			},
		},
		{
			input: "fn(a) { fn(b) { fn(c) { a + b + c } } }",
			expectedConstants: []any{
				[]Instructions{
					bytecode.Make(OP_GET_FREE, 0),
					bytecode.Make(OP_GET_FREE, 1),
					bytecode.Make(OP_ADD),
					bytecode.Make(OP_GET_LOCAL, 0),
					bytecode.Make(OP_ADD),
					bytecode.Make(OP_RETURN_VALUE),
				},
				[]Instructions{
					bytecode.Make(OP_GET_FREE, 0),
					bytecode.Make(OP_GET_LOCAL, 0),
					bytecode.Make(OP_CLOSURE, 0, 2),
					bytecode.Make(OP_RETURN_VALUE),
				},
				[]Instructions{
					bytecode.Make(OP_GET_LOCAL, 0),
					bytecode.Make(OP_CLOSURE, 1, 1),
					bytecode.Make(OP_RETURN_VALUE),
				},
			},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 2, 0),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestRecursiveFunctions(t *testing.T) {
	runCompilerTests(t, []compilerTestCase{
		{
			input: "let countDown = fn(x) { countDown(x - 1); }; countDown(1);",
			expectedConstants: []any{
				1,
				[]Instructions{
					bytecode.Make(OP_CURRENT_CLOSURE),
					bytecode.Make(OP_GET_LOCAL, 0),
					bytecode.Make(OP_CONST, 0),
					bytecode.Make(OP_SUB),
					bytecode.Make(OP_CALL, 1),
					bytecode.Make(OP_RETURN_VALUE),
				},
				1,
			},
			expectedInstructions: []Instructions{
				bytecode.Make(OP_CLOSURE, 1, 0),
				bytecode.Make(OP_SET_GLOBAL, 0),
				bytecode.Make(OP_GET_GLOBAL, 0),
				bytecode.Make(OP_CONST, 2),
				bytecode.Make(OP_CALL, 1),
				bytecode.Make(OP_POP),
			},
		},
	})
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		input    string
		sentinel error
	}{
		{"undefinedVar", ErrUndefinedVariable},
		{"fn() { missing }", ErrUndefinedVariable},
	}
	for _, tt := range tests {
		c := New()
		err := c.Compile(parseSource(t, tt.input))
		if !errors.Is(err, tt.sentinel) {
			t.Fatalf("%q: expected %v, got %v", tt.input, tt.sentinel, err)
		}
		var ce *CompileError
		if !errors.As(err, &ce) || ce.Pos.Line == 0 {
			t.Fatalf("%q: expected positioned CompileError, got %#v", tt.input, err)
		}
	}
}

func TestUnknownOperator(t *testing.T) {
	prog := parseSource(t, "1")
	stmt := prog.Statements[0].(*ast.ExprStmt)
	stmt.Expression = &ast.InfixExpr{Left: stmt.Expression, Operator: "%", Right: stmt.Expression}

	err := New().Compile(prog)
	if !errors.Is(err, ErrUnknownOperator) {
		t.Fatalf("expected ErrUnknownOperator, got %v", err)
	}
}

func TestUnsupportedNode(t *testing.T) {
	err := New().Compile(nil)
	if !errors.Is(err, ErrUnsupportedNode) {
		t.Fatalf("expected ErrUnsupportedNode, got %v", err)
	}
}

func TestLeaveOutermostScope(t *testing.T) {
	c := New()
	if _, err := c.leaveScope(); !errors.Is(err, ErrOutermostScope) {
		t.Fatalf("expected ErrOutermostScope, got %v", err)
	}
}

func TestCompilerScopes(t *testing.T) {
	c := New()
	global := c.symbolTable
	c.emit(OP_MUL)

	c.enterScope()
	if c.scopeIndex != 1 {
		t.Fatalf("scopeIndex wrong. got=%d, want=1", c.scopeIndex)
	}
	c.emit(OP_SUB)
	if last := c.scopes[c.scopeIndex].lastInstruction; last.Opcode != OP_SUB {
		t.Fatalf("lastInstruction wrong. got=%d, want=%d", last.Opcode, OP_SUB)
	}
	if c.symbolTable.Outer != global {
		t.Fatalf("compiler did not enclose symbol table")
	}

	if _, err := c.leaveScope(); err != nil {
		t.Fatalf("leave scope: %v", err)
	}
	if c.symbolTable != global {
		t.Fatalf("compiler did not restore global symbol table")
	}

	c.emit(OP_ADD)
	scope := c.scopes[c.scopeIndex]
	if len(scope.instructions) != 2 {
		t.Fatalf("instructions length wrong. got=%d", len(scope.instructions))
	}
	if scope.lastInstruction.Opcode != OP_ADD || scope.previousInstruction.Opcode != OP_MUL {
		t.Fatalf("last/previous instruction wrong: %+v %+v", scope.lastInstruction, scope.previousInstruction)
	}
}

// Independent compilers produce identical output for the same program.
func TestCompileIdempotent(t *testing.T) {
	src := `let m = {"x": fn(a) { a * 2 }, 1: [1, "two"]}; let f = fn(n) { if (n < 1) { 0 } else { f(n - 1) } }; f(3);`
	prog := parseSource(t, src)

	first := New()
	if err := first.Compile(prog); err != nil {
		t.Fatalf("compile: %v", err)
	}
	second := New()
	if err := second.Compile(prog); err != nil {
		t.Fatalf("compile: %v", err)
	}

	a, b := first.Bytecode(), second.Bytecode()
	if !bytes.Equal(a.Instructions, b.Instructions) {
		t.Fatalf("instruction streams differ")
	}
	if len(a.Constants) != len(b.Constants) {
		t.Fatalf("constant pools differ in length")
	}
	for i := range a.Constants {
		ca, cb := a.Constants[i], b.Constants[i]
		if ca.Kind != cb.Kind || ca.Inspect() != cb.Inspect() {
			t.Fatalf("constant %d differs: %s vs %s", i, ca.Inspect(), cb.Inspect())
		}
		if ca.Kind == object.KindCompiledFunction && !bytes.Equal(ca.Proto.Instructions, cb.Proto.Instructions) {
			t.Fatalf("function constant %d differs", i)
		}
	}
}

func TestRemoveLastForgetsHistory(t *testing.T) {
	c := New()
	c.emit(OP_TRUE)
	c.emit(OP_POP)
	c.emit(OP_POP)

	c.removeLastPop()
	if !c.lastInstructionIs(OP_POP) {
		t.Fatalf("expected the earlier pop to become last")
	}
	c.removeLastPop()
	if c.lastInstructionIs(OP_POP) {
		t.Fatalf("a second removal must not report a stale pop")
	}
	if n := len(c.currentInstructions()); n != 1 {
		t.Fatalf("expected 1 byte left, got %d", n)
	}

	// Nothing is known about the last instruction until the next emit.
	c.removeLastPop()
	if n := len(c.currentInstructions()); n != 1 {
		t.Fatalf("removal without history dropped bytes, %d left", n)
	}
	c.emit(OP_NULL)
	if !c.lastInstructionIs(OP_NULL) {
		t.Fatalf("expected OP_NULL to be last after emitting it")
	}
}
