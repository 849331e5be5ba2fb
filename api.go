package monkey

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-monkey/internal/bytecode"
	_ "github.com/xirelogy/go-monkey/internal/builtins"
	"github.com/xirelogy/go-monkey/internal/compiler"
	"github.com/xirelogy/go-monkey/internal/config"
	"github.com/xirelogy/go-monkey/internal/lexer"
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/parser"
	"github.com/xirelogy/go-monkey/internal/vm"
)

var log = commonlog.GetLogger("monkey.session")

// ErrBusy is returned by EvalAsync when another evaluation is in flight.
var ErrBusy = errors.New("session is busy")

// ParseError carries every message reported by the parser for one input.
type ParseError struct {
	Messages []string
}

func (e *ParseError) Error() string {
	return "parse errors: " + strings.Join(e.Messages, "; ")
}

// Session is a REPL-style evaluation context. Globals, the symbol table and
// the constant pool persist from one Eval to the next.
type Session struct {
	id  uuid.UUID
	cfg *config.Config

	mu   sync.Mutex
	busy bool

	symbols   *compiler.SymbolTable
	constants []object.Value
	globals   []object.Value

	out       io.Writer
	traceHook vm.TraceHook
	stats     vm.Stats
}

// Option configures a Session at construction.
type Option func(*Session)

// WithConfig sizes the VM from cfg. A nil cfg keeps the defaults.
func WithConfig(cfg *config.Config) Option {
	return func(s *Session) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithOutput sets where the log builtin writes.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		if w != nil {
			s.out = w
		}
	}
}

func WithTraceHook(h vm.TraceHook) Option {
	return func(s *Session) { s.traceHook = h }
}

// NewSession constructs an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		id:      uuid.New(),
		cfg:     config.Default(),
		symbols: compiler.NewGlobalSymbolTable(),
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.globals = vm.NewGlobals(s.cfg.VM.GlobalsSize)
	log.Debugf("session %s created", s.id)
	return s
}

// ID identifies the session in log output.
func (s *Session) ID() string {
	return s.id.String()
}

// Stats reports the counters of the most recent run.
func (s *Session) Stats() vm.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Eval parses, compiles and runs src. The result is the value of the last
// top-level expression statement. A fatal fault comes back as *vm.RuntimeError.
func (s *Session) Eval(src string) (object.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval(src)
}

func (s *Session) eval(src string) (object.Value, error) {
	bc, symbols, err := s.compile(src)
	if err != nil {
		return object.Null(), err
	}
	s.symbols = symbols
	s.constants = bc.Constants

	machine := vm.New(bc.Instructions, bc.Constants,
		vm.WithGlobals(s.globals),
		vm.WithStackSize(s.cfg.VM.StackSize),
		vm.WithMaxFrames(s.cfg.VM.MaxFrames),
		vm.WithOutput(s.out),
	)
	machine.SetInstructionLimit(s.cfg.VM.InstructionLimit)
	machine.SetTraceHook(s.traceHook)

	err = machine.Run()
	s.stats = machine.Stats()
	if err != nil {
		log.Errorf("session %s: %s", s.id, err.Error())
		return object.Null(), err
	}
	result := machine.LastPoppedStackElem()
	log.Debugf("session %s: %d instructions, result %s", s.id, s.stats.Instructions, result.Type())
	return result, nil
}

// Compile parses and compiles src against the session state without running
// it. The session itself is left untouched.
func (s *Session) Compile(src string) (*compiler.Bytecode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bc, _, err := s.compile(src)
	return bc, err
}

// compile works on copies of the global table and constant pool. eval
// commits them once the input is known to compile.
func (s *Session) compile(src string) (*compiler.Bytecode, *compiler.SymbolTable, error) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, nil, &ParseError{Messages: errs}
	}

	symbols := s.symbols.Clone()
	constants := append([]object.Value(nil), s.constants...)
	c := compiler.NewWithState(symbols, constants)
	if err := c.Compile(prog); err != nil {
		return nil, nil, fmt.Errorf("compile error: %w", err)
	}
	return c.Bytecode(), symbols, nil
}

// Disassemble compiles src and writes its listing to w.
func (s *Session) Disassemble(src string, w io.Writer) error {
	bc, err := s.Compile(src)
	if err != nil {
		return err
	}
	return bytecode.NewDisassembler(w).DisassembleProgram(bc.Instructions, object.Pool(bc.Constants))
}

// EvalFuture represents an in-flight evaluation.
type EvalFuture struct {
	ch <-chan EvalResult
}

// EvalResult is the outcome of an evaluation.
type EvalResult struct {
	Value object.Value
	Err   error
}

// Await waits for completion or context cancellation.
func (f EvalFuture) Await(ctx context.Context) (object.Value, error) {
	select {
	case <-ctx.Done():
		return object.Null(), ctx.Err()
	case res := <-f.ch:
		return res.Value, res.Err
	}
}

// EvalAsync runs Eval on its own goroutine. Only one evaluation may be in
// flight; a second call fails with ErrBusy instead of queueing.
func (s *Session) EvalAsync(ctx context.Context, src string) EvalFuture {
	ch := make(chan EvalResult, 1)

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		ch <- EvalResult{Value: object.Null(), Err: ErrBusy}
		close(ch)
		return EvalFuture{ch: ch}
	}
	s.busy = true
	s.mu.Unlock()

	go func() {
		defer close(ch)
		defer func() {
			s.mu.Lock()
			s.busy = false
			s.mu.Unlock()
		}()
		select {
		case <-ctx.Done():
			ch <- EvalResult{Value: object.Null(), Err: ctx.Err()}
			return
		default:
		}
		s.mu.Lock()
		v, err := s.eval(src)
		s.mu.Unlock()
		ch <- EvalResult{Value: v, Err: err}
	}()
	return EvalFuture{ch: ch}
}
