package vm

import (
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/runtime"
)

var log = commonlog.GetLogger("monkey.vm")

const (
	StackSize   = 2048
	GlobalsSize = 65536
	MaxFrames   = 1024

	mainName = "<main>"
)

// VM is a stack-based bytecode interpreter. The operand stack, frames and
// globals have fixed capacity; sp always points at the next free slot.
type VM struct {
	constants []object.Value

	stack []object.Value
	sp    int

	globals []object.Value

	frames      []*Frame
	framesIndex int

	out       io.Writer
	traceHook TraceHook
	instLimit int
	stats     Stats
}

// Option configures a VM at construction.
type Option func(*VM)

// WithGlobals shares an existing global store, as a REPL does across inputs.
func WithGlobals(globals []object.Value) Option {
	return func(vm *VM) { vm.globals = globals }
}

// WithStackSize sets the operand stack capacity.
func WithStackSize(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.stack = make([]object.Value, n)
		}
	}
}

// WithMaxFrames sets the call depth limit.
func WithMaxFrames(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.frames = make([]*Frame, n)
		}
	}
}

// WithOutput sets where builtins such as log write.
func WithOutput(w io.Writer) Option {
	return func(vm *VM) {
		if w != nil {
			vm.out = w
		}
	}
}

// NewGlobals allocates a global store of the given size.
func NewGlobals(size int) []object.Value {
	if size <= 0 {
		size = GlobalsSize
	}
	return make([]object.Value, size)
}

// New prepares a VM to run ins, the top-level instructions, against constants.
func New(ins bytecode.Instructions, constants []object.Value, opts ...Option) *VM {
	vm := &VM{
		constants: constants,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.stack == nil {
		vm.stack = make([]object.Value, StackSize)
	}
	if vm.globals == nil {
		vm.globals = NewGlobals(GlobalsSize)
	}
	if vm.frames == nil {
		vm.frames = make([]*Frame, MaxFrames)
	}

	mainFn := &bytecode.Prototype{Name: mainName, Instructions: ins}
	vm.frames[0] = NewFrame(&object.Closure{Fn: mainFn}, 0)
	vm.framesIndex = 1
	return vm
}

// SetTraceHook registers a callback for instruction-level tracing.
func (vm *VM) SetTraceHook(h TraceHook) {
	vm.traceHook = h
}

// SetInstructionLimit caps the number of instructions executed per Run (0 for unlimited).
func (vm *VM) SetInstructionLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	vm.instLimit = limit
}

// Stdout is where builtins write their output.
func (vm *VM) Stdout() io.Writer {
	return vm.out
}

// Run executes the top-level instructions to completion or until a fatal
// fault, which is returned as a *RuntimeError.
func (vm *VM) Run() error {
	vm.stats.Instructions = 0

	for vm.currentFrame().ip < len(vm.currentFrame().Instructions())-1 {
		fr := vm.currentFrame()
		fr.ip++
		ip := fr.ip
		ins := fr.Instructions()
		op := ins[ip]

		vm.stats.Instructions++
		if vm.instLimit > 0 && vm.stats.Instructions > vm.instLimit {
			return vm.errorf(ErrInstructionLimit, "instruction limit of %d exceeded", vm.instLimit)
		}
		vm.trace(fr, op)

		switch op {
		case bytecode.OP_CONST:
			idx := int(bytecode.ReadUint16(ins[ip+1:]))
			fr.ip += 2
			if err := vm.push(vm.constants[idx]); err != nil {
				return err
			}

		case bytecode.OP_NULL:
			if err := vm.push(object.Null()); err != nil {
				return err
			}
		case bytecode.OP_TRUE:
			if err := vm.push(object.Bool(true)); err != nil {
				return err
			}
		case bytecode.OP_FALSE:
			if err := vm.push(object.Bool(false)); err != nil {
				return err
			}

		case bytecode.OP_POP:
			vm.pop()

		case bytecode.OP_ADD, bytecode.OP_SUB, bytecode.OP_MUL, bytecode.OP_DIV:
			if err := vm.executeBinaryOperation(op); err != nil {
				return err
			}

		case bytecode.OP_EQ, bytecode.OP_NEQ, bytecode.OP_GT:
			if err := vm.executeComparison(op); err != nil {
				return err
			}

		case bytecode.OP_NOT:
			operand := vm.pop()
			if err := vm.push(object.Bool(!object.Truthy(operand))); err != nil {
				return err
			}

		case bytecode.OP_NEG:
			operand := vm.pop()
			if operand.Kind != object.KindInteger {
				return vm.errorf(ErrUnsupportedOperands, "unsupported type for negation: %s", operand.Type())
			}
			if err := vm.push(object.Integer(-operand.Int)); err != nil {
				return err
			}

		case bytecode.OP_JUMP:
			pos := int(bytecode.ReadUint16(ins[ip+1:]))
			fr.ip = pos - 1

		case bytecode.OP_JUMP_IF_FALSE:
			pos := int(bytecode.ReadUint16(ins[ip+1:]))
			fr.ip += 2
			condition := vm.pop()
			if !object.Truthy(condition) {
				fr.ip = pos - 1
			}

		case bytecode.OP_SET_GLOBAL:
			idx := int(bytecode.ReadUint16(ins[ip+1:]))
			fr.ip += 2
			if idx >= len(vm.globals) {
				return vm.errorf(ErrGlobalOutOfRange, "global %d outside store of %d", idx, len(vm.globals))
			}
			vm.globals[idx] = vm.pop()

		case bytecode.OP_GET_GLOBAL:
			idx := int(bytecode.ReadUint16(ins[ip+1:]))
			fr.ip += 2
			if idx >= len(vm.globals) {
				return vm.errorf(ErrGlobalOutOfRange, "global %d outside store of %d", idx, len(vm.globals))
			}
			if err := vm.push(vm.globals[idx]); err != nil {
				return err
			}

		case bytecode.OP_SET_LOCAL:
			idx := int(bytecode.ReadUint8(ins[ip+1:]))
			fr.ip++
			vm.stack[fr.basePointer+idx] = vm.pop()

		case bytecode.OP_GET_LOCAL:
			idx := int(bytecode.ReadUint8(ins[ip+1:]))
			fr.ip++
			if err := vm.push(vm.stack[fr.basePointer+idx]); err != nil {
				return err
			}

		case bytecode.OP_GET_BUILTIN:
			idx := int(bytecode.ReadUint8(ins[ip+1:]))
			fr.ip++
			spec, ok := runtime.LookupByIndex(idx)
			if !ok {
				return vm.errorf(ErrUnknownBuiltin, "no builtin in slot %d", idx)
			}
			if err := vm.push(spec.Value()); err != nil {
				return err
			}

		case bytecode.OP_GET_FREE:
			idx := int(bytecode.ReadUint8(ins[ip+1:]))
			fr.ip++
			if err := vm.push(fr.cl.Free[idx]); err != nil {
				return err
			}

		case bytecode.OP_CURRENT_CLOSURE:
			if err := vm.push(object.ClosureVal(fr.cl)); err != nil {
				return err
			}

		case bytecode.OP_ARRAY:
			n := int(bytecode.ReadUint16(ins[ip+1:]))
			fr.ip += 2
			elements := make([]object.Value, n)
			copy(elements, vm.stack[vm.sp-n:vm.sp])
			vm.sp -= n
			if err := vm.push(object.Array(elements)); err != nil {
				return err
			}

		case bytecode.OP_HASH:
			pairs := int(bytecode.ReadUint16(ins[ip+1:]))
			fr.ip += 2
			hash, err := vm.buildHash(vm.sp-2*pairs, vm.sp)
			if err != nil {
				return err
			}
			vm.sp -= 2 * pairs
			if err := vm.push(hash); err != nil {
				return err
			}

		case bytecode.OP_INDEX:
			index := vm.pop()
			left := vm.pop()
			if err := vm.executeIndex(left, index); err != nil {
				return err
			}

		case bytecode.OP_CALL:
			numArgs := int(bytecode.ReadUint8(ins[ip+1:]))
			fr.ip++
			if err := vm.executeCall(numArgs); err != nil {
				return err
			}

		case bytecode.OP_RETURN_VALUE:
			returnValue := vm.pop()
			if done, err := vm.returnFromFrame(returnValue); done || err != nil {
				return err
			}

		case bytecode.OP_RETURN:
			if done, err := vm.returnFromFrame(object.Null()); done || err != nil {
				return err
			}

		case bytecode.OP_CLOSURE:
			constIndex := int(bytecode.ReadUint16(ins[ip+1:]))
			numFree := int(bytecode.ReadUint8(ins[ip+3:]))
			fr.ip += 3
			if err := vm.pushClosure(constIndex, numFree); err != nil {
				return err
			}

		default:
			return vm.errorf(ErrUnknownOpcode, "opcode 0x%02X undefined", op)
		}
	}
	return nil
}

// returnFromFrame unwinds the current call and pushes value for the caller.
// A return from the top level ends the run with value as the last popped
// element.
func (vm *VM) returnFromFrame(value object.Value) (bool, error) {
	if vm.framesIndex == 1 {
		if err := vm.push(value); err != nil {
			return true, err
		}
		vm.pop()
		fr := vm.currentFrame()
		fr.ip = len(fr.Instructions()) - 1
		return true, nil
	}
	frame := vm.popFrame()
	vm.sp = frame.basePointer - 1
	return false, vm.push(value)
}

func (vm *VM) executeCall(numArgs int) error {
	callee := vm.stack[vm.sp-1-numArgs]
	switch callee.Kind {
	case object.KindClosure:
		return vm.callClosure(callee.Closure, numArgs)
	case object.KindBuiltin:
		return vm.callBuiltin(callee.Builtin, numArgs)
	default:
		return vm.errorf(ErrNotCallable, "calling non-function and non-built-in: %s", callee.Type())
	}
}

func (vm *VM) callClosure(cl *object.Closure, numArgs int) error {
	if numArgs != cl.Fn.NumParameters {
		return vm.errorf(ErrWrongArgumentCount, "wrong number of arguments: want=%d, got=%d", cl.Fn.NumParameters, numArgs)
	}
	if vm.framesIndex >= len(vm.frames) {
		return vm.errorf(ErrFrameOverflow, "frame overflow: more than %d nested calls", len(vm.frames))
	}

	frame := NewFrame(cl, vm.sp-numArgs)
	top := frame.basePointer + cl.Fn.NumLocals
	if top > len(vm.stack) {
		return vm.errorf(ErrStackOverflow, "stack overflow")
	}
	vm.pushFrame(frame)
	// Locals beyond the parameters must not see values left by earlier calls.
	for i := frame.basePointer + numArgs; i < top; i++ {
		vm.stack[i] = object.Null()
	}
	vm.sp = top
	return nil
}

func (vm *VM) pushClosure(constIndex, numFree int) error {
	constant := vm.constants[constIndex]
	if constant.Kind != object.KindCompiledFunction {
		return vm.errorf(ErrNotCallable, "not a function: %s", constant.Type())
	}

	free := make([]object.Value, numFree)
	copy(free, vm.stack[vm.sp-numFree:vm.sp])
	vm.sp -= numFree

	return vm.push(object.ClosureVal(&object.Closure{Fn: constant.Proto, Free: free}))
}

func (vm *VM) currentFrame() *Frame {
	if vm.framesIndex == 0 {
		return nil
	}
	return vm.frames[vm.framesIndex-1]
}

func (vm *VM) pushFrame(f *Frame) {
	vm.frames[vm.framesIndex] = f
	vm.framesIndex++
	if vm.framesIndex > vm.stats.MaxFrames {
		vm.stats.MaxFrames = vm.framesIndex
	}
	log.Debugf("call %s (depth %d)", displayName(f), vm.framesIndex)
}

func (vm *VM) popFrame() *Frame {
	vm.framesIndex--
	f := vm.frames[vm.framesIndex]
	vm.frames[vm.framesIndex] = nil
	log.Debugf("return from %s (depth %d)", displayName(f), vm.framesIndex)
	return f
}

func (vm *VM) push(v object.Value) error {
	if vm.sp >= len(vm.stack) {
		return vm.errorf(ErrStackOverflow, "stack overflow")
	}
	vm.stack[vm.sp] = v
	vm.sp++
	if vm.sp > vm.stats.MaxStack {
		vm.stats.MaxStack = vm.sp
	}
	return nil
}

// pop leaves the slot untouched so LastPoppedStackElem can read it.
func (vm *VM) pop() object.Value {
	v := vm.stack[vm.sp-1]
	vm.sp--
	return v
}
