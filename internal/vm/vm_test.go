package vm_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	_ "github.com/xirelogy/go-monkey/internal/builtins"
	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/compiler"
	"github.com/xirelogy/go-monkey/internal/lexer"
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/parser"
	"github.com/xirelogy/go-monkey/internal/vm"
)

func compileSource(t *testing.T, src string) *compiler.Bytecode {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		t.Fatalf("parser errors: %v", errs)
	}
	c := compiler.New()
	if err := c.Compile(prog); err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return c.Bytecode()
}

func run(t *testing.T, src string, opts ...vm.Option) (object.Value, error) {
	t.Helper()
	bc := compileSource(t, src)
	machine := vm.New(bc.Instructions, bc.Constants, opts...)
	if err := machine.Run(); err != nil {
		return object.Value{}, err
	}
	return machine.LastPoppedStackElem(), nil
}

type vmTestCase struct {
	input    string
	expected string
}

func runVMTests(t *testing.T, tests []vmTestCase) {
	t.Helper()
	for _, tt := range tests {
		v, err := run(t, tt.input)
		if err != nil {
			t.Fatalf("%q: vm error: %v", tt.input, err)
		}
		if got := v.Inspect(); got != tt.expected {
			t.Fatalf("%q: expected %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestIntegerArithmetic(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"1", "1"},
		{"1 + 2", "3"},
		{"1 - 2", "-1"},
		{"4 / 2", "2"},
		{"50 / 2 * 2 + 10 - 5", "55"},
		{"5 * (2 + 10)", "60"},
		{"-5", "-5"},
		{"-50 + 100 + -50", "0"},
		{"(5 + 10 * 2 + 15 / 3) * 2 + -10", "50"},
	})
}

func TestBooleanExpressions(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"true", "true"},
		{"1 < 2", "true"},
		{"1 > 2", "false"},
		{"1 == 1", "true"},
		{"1 != 2", "true"},
		{"true == false", "false"},
		{"(1 < 2) == true", "true"},
		{`"a" == "a"`, "true"},
		{`"a" != "b"`, "true"},
		{"!true", "false"},
		{"!5", "false"},
		{"!!5", "true"},
		{"!(if (false) { 5; })", "true"},
	})
}

func TestConditionals(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"if (true) { 10 }", "10"},
		{"if (true) { 10 } else { 20 }", "10"},
		{"if (false) { 10 } else { 20 } ", "20"},
		{"if (1) { 10 }", "10"},
		{"if (1 > 2) { 10 }", "null"},
		{"if (false) { 10 }", "null"},
		{"if ((if (false) { 10 })) { 10 } else { 20 }", "20"},
	})
}

func TestGlobalsStringsAndCollections(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"let one = 1; let two = one + one; one + two", "3"},
		{`"mon" + "key" + "banana"`, "monkeybanana"},
		{"[1 + 2, 3 * 4]", "[3, 12]"},
		{"{1: 2, 2: 3}", "{1: 2, 2: 3}"},
		{"[1, 2, 3][1]", "2"},
		{"[[1, 1, 1]][0][0]", "1"},
		{"[1, 2, 3][5]", "null"},
		{"[1][-1]", "null"},
		{"{1: 1, 2: 2}[2]", "2"},
		{"{1: 2}[3]", "null"},
		{`{1: 2}["x"]`, "null"},
		{"{}[0]", "null"},
	})
}

func TestCallingFunctions(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"let f = fn() { 5 + 10; }; f();", "15"},
		{"let f = fn() { return 99; 100; }; f();", "99"},
		{"let noReturn = fn() { }; noReturn();", "null"},
		{"let bare = fn() { return; }; bare();", "null"},
		{"let one = fn() { 1; }; let two = fn() { one() + 1; }; two();", "2"},
		{"let identity = fn(a) { a; }; identity(4);", "4"},
		{"let sum = fn(a, b) { let c = a + b; c; }; sum(1, 2) + sum(3, 4);", "10"},
		{"let g = 50; let minus = fn() { let n = 1; g - n }; minus() + minus();", "98"},
		{"let returnsOne = fn() { 1; }; let outer = fn() { returnsOne; }; outer()();", "1"},
	})
}

func TestClosures(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"let newAdder = fn(a, b) { fn(c) { a + b + c } }; let add5 = newAdder(2, 3); add5(10);", "15"},
		{"let newClosure = fn(a) { fn() { a; }; }; let closure = newClosure(99); closure();", "99"},
		{`let newAdderOuter = fn(a, b) { let c = a + b; fn(d) { let e = d + c; fn(f) { e + f; }; }; };
let newAdderInner = newAdderOuter(1, 2);
let adder = newAdderInner(3);
adder(8);`, "14"},
		{`let newClosure = fn(a, b) {
  let one = fn() { a; };
  let two = fn() { b; };
  fn() { one() + two(); };
};
let closure = newClosure(9, 90);
closure();`, "99"},
	})
}

func TestRecursiveFunctions(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"let countDown = fn(x) { if (x == 0) { return 0; } else { countDown(x - 1); } }; countDown(1);", "0"},
		{`let wrapper = fn() {
  let countDown = fn(x) { if (x == 0) { return 0; } else { countDown(x - 1); } };
  countDown(1);
};
wrapper();`, "0"},
		{`let fibonacci = fn(x) {
  if (x == 0) { return 0; }
  if (x == 1) { return 1; }
  fibonacci(x - 1) + fibonacci(x - 2);
};
fibonacci(15);`, "610"},
	})
}

func TestBuiltinFunctions(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{`len("")`, "0"},
		{`len("hello world")`, "11"},
		{`len(1)`, "ERROR: argument to `len` not supported, got INTEGER"},
		{`len("one", "two")`, "ERROR: wrong number of arguments. got=2, want=1"},
		{`len([1, 2, 3])`, "3"},
		{`first([1, 2, 3])`, "1"},
		{`first([])`, "null"},
		{`last([1, 2, 3])`, "3"},
		{`rest([1, 2, 3])`, "[2, 3]"},
		{`rest([])`, "null"},
		{`push([], 1)`, "[1]"},
		{`push(1, 1)`, "ERROR: argument to `push` must be ARRAY, got INTEGER"},
		{`let a = [1, 2, 3]; pop(a); a`, "[1, 2, 3]"},
		{`pop([1, 2, 3])`, "[1, 2]"},
		{`toUpper("monkey")`, "MONKEY"},
		{`toLower("MONKEY")`, "monkey"},
		{`let l = len; l("ab")`, "2"},
	})
}

func TestTopLevelReturn(t *testing.T) {
	runVMTests(t, []vmTestCase{
		{"return 7; 8;", "7"},
	})
}

func TestLogWritesToOutput(t *testing.T) {
	var out bytes.Buffer
	v, err := run(t, `log("hi", 1 + 1)`, vm.WithOutput(&out))
	if err != nil {
		t.Fatalf("vm error: %v", err)
	}
	if v.Kind != object.KindNull {
		t.Fatalf("expected null, got %s", v.Inspect())
	}
	if out.String() != "hi\n2\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		input    string
		sentinel error
		message  string
	}{
		{"fn(a) { a; }();", vm.ErrWrongArgumentCount, "want=1, got=0"},
		{"fn() { 1; }(1);", vm.ErrWrongArgumentCount, "want=0, got=1"},
		{"1 + true", vm.ErrUnsupportedOperands, "unsupported types for binary operation: INTEGER BOOLEAN"},
		{`"a" - "b"`, vm.ErrUnsupportedOperands, "unknown string operator"},
		{"-true", vm.ErrUnsupportedOperands, "negation"},
		{"true > false", vm.ErrUnsupportedOperands, "unknown operator"},
		{"1 / 0", vm.ErrDivisionByZero, "division by zero"},
		{"1[0]", vm.ErrNotIndexable, "index operator not supported"},
		{`[1]["a"]`, vm.ErrNotIndexable, "index operator not supported"},
		{"{1: 2}[fn() { 1 }]", vm.ErrUnusableHashKey, "unusable as hash key: CLOSURE"},
		{"{[1]: 2}", vm.ErrUnusableHashKey, "unusable as hash key: ARRAY"},
		{"1()", vm.ErrNotCallable, "calling non-function"},
	}
	for _, tt := range tests {
		_, err := run(t, tt.input)
		if err == nil {
			t.Fatalf("%q: expected error", tt.input)
		}
		if !errors.Is(err, tt.sentinel) {
			t.Fatalf("%q: expected %v, got %v", tt.input, tt.sentinel, err)
		}
		var rerr *vm.RuntimeError
		if !errors.As(err, &rerr) {
			t.Fatalf("%q: expected *RuntimeError, got %T", tt.input, err)
		}
		if !strings.Contains(rerr.Message, tt.message) {
			t.Fatalf("%q: expected message containing %q, got %q", tt.input, tt.message, rerr.Message)
		}
	}
}

func TestRuntimeErrorFrame(t *testing.T) {
	_, err := run(t, "let inner = fn() { 1 + true }; let outer = fn() { inner() }; outer();")
	var rerr *vm.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RuntimeError, got %v", err)
	}
	if rerr.Frame.Function != "inner" || rerr.Frame.Op != "OP_ADD" {
		t.Fatalf("unexpected frame %+v", rerr.Frame)
	}
	if len(rerr.Stack) != 3 || rerr.Stack[1].Function != "outer" || rerr.Stack[2].Function != "<main>" {
		t.Fatalf("unexpected stack %+v", rerr.Stack)
	}
}

func TestStackOverflow(t *testing.T) {
	_, err := run(t, "let f = fn(x) { f(x + 1) + 1 }; f(0);", vm.WithStackSize(64), vm.WithMaxFrames(10000))
	if !errors.Is(err, vm.ErrStackOverflow) {
		t.Fatalf("expected stack overflow, got %v", err)
	}
}

func TestFrameOverflow(t *testing.T) {
	_, err := run(t, "let f = fn() { f() }; f();", vm.WithMaxFrames(16))
	if !errors.Is(err, vm.ErrFrameOverflow) {
		t.Fatalf("expected frame overflow, got %v", err)
	}
}

func TestInstructionLimit(t *testing.T) {
	bc := compileSource(t, "let f = fn(x) { if (x == 0) { 0 } else { f(x - 1) } }; f(100);")
	machine := vm.New(bc.Instructions, bc.Constants)
	machine.SetInstructionLimit(50)
	if err := machine.Run(); !errors.Is(err, vm.ErrInstructionLimit) {
		t.Fatalf("expected instruction limit error, got %v", err)
	}
}

func TestTraceHookAndStats(t *testing.T) {
	bc := compileSource(t, "let add = fn(a, b) { a + b }; add(1, 2);")
	machine := vm.New(bc.Instructions, bc.Constants)
	var ops []string
	maxDepth := 0
	machine.SetTraceHook(func(info vm.TraceInfo) {
		ops = append(ops, info.Function)
		if info.Depth > maxDepth {
			maxDepth = info.Depth
		}
	})
	if err := machine.Run(); err != nil {
		t.Fatalf("vm error: %v", err)
	}
	stats := machine.Stats()
	if stats.Instructions != len(ops) {
		t.Fatalf("stats counted %d instructions, trace saw %d", stats.Instructions, len(ops))
	}
	if maxDepth != 2 || stats.MaxFrames != 2 {
		t.Fatalf("expected depth 2, got trace=%d stats=%d", maxDepth, stats.MaxFrames)
	}
}

func TestGlobalsSharedAcrossRuns(t *testing.T) {
	globals := vm.NewGlobals(vm.GlobalsSize)
	symbols := compiler.NewGlobalSymbolTable()
	constants := []object.Value{}

	for i, tc := range []struct{ src, expected string }{
		{"let a = 40;", ""},
		{"let b = fn(x) { a + x };", ""},
		{"b(2)", "42"},
	} {
		p := parser.New(lexer.New(tc.src))
		prog := p.ParseProgram()
		c := compiler.NewWithState(symbols, constants)
		if err := c.Compile(prog); err != nil {
			t.Fatalf("step %d: compile: %v", i, err)
		}
		bc := c.Bytecode()
		constants = bc.Constants
		machine := vm.New(bc.Instructions, bc.Constants, vm.WithGlobals(globals))
		if err := machine.Run(); err != nil {
			t.Fatalf("step %d: run: %v", i, err)
		}
		if tc.expected != "" && machine.LastPoppedStackElem().Inspect() != tc.expected {
			t.Fatalf("step %d: expected %s, got %s", i, tc.expected, machine.LastPoppedStackElem().Inspect())
		}
	}
}

func TestDisassemble(t *testing.T) {
	bc := compileSource(t, "let add = fn(a, b) { a + b }; len([add(1, 2)]);")
	machine := vm.New(bc.Instructions, bc.Constants)
	var out bytes.Buffer
	if err := machine.Disassemble(&out); err != nil {
		t.Fatalf("disassemble: %v", err)
	}
	for _, want := range []string{"func <main>", "func add (params=2, locals=2)", "builtin=len", "OP_CLOSURE"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in:\n%s", want, out.String())
		}
	}
}

func TestHashIndexComparesKeys(t *testing.T) {
	a, _ := object.String("a").HashKey()
	// A pair filed under the key of "a" that actually belongs to "b".
	colliding := object.Hash(map[object.HashKey]object.HashPair{
		a: {Key: object.String("b"), Value: object.Integer(2)},
	})

	var ins bytecode.Instructions
	for _, part := range [][]byte{
		bytecode.Make(bytecode.OP_CONST, 0),
		bytecode.Make(bytecode.OP_CONST, 1),
		bytecode.Make(bytecode.OP_INDEX),
		bytecode.Make(bytecode.OP_POP),
	} {
		ins = append(ins, part...)
	}

	machine := vm.New(ins, []object.Value{colliding, object.String("a")})
	if err := machine.Run(); err != nil {
		t.Fatalf("vm error: %v", err)
	}
	if got := machine.LastPoppedStackElem(); got.Kind != object.KindNull {
		t.Fatalf("expected null for a mismatched key, got %s", got.Inspect())
	}
}
