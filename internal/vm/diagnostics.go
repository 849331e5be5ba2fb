package vm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xirelogy/go-monkey/internal/bytecode"
)

var (
	ErrStackOverflow       = errors.New("stack overflow")
	ErrFrameOverflow       = errors.New("frame overflow")
	ErrUnsupportedOperands = errors.New("unsupported operands")
	ErrDivisionByZero      = errors.New("division by zero")
	ErrUnusableHashKey     = errors.New("unusable as hash key")
	ErrNotIndexable        = errors.New("index operator not supported")
	ErrNotCallable         = errors.New("not callable")
	ErrWrongArgumentCount  = errors.New("wrong number of arguments")
	ErrInstructionLimit    = errors.New("instruction limit exceeded")
	ErrUnknownOpcode       = errors.New("unknown opcode")
	ErrGlobalOutOfRange    = errors.New("global index out of range")
	ErrUnknownBuiltin      = errors.New("unknown builtin")
)

// TraceInfo describes a single instruction dispatch for debugging/tracing.
type TraceInfo struct {
	Op       byte
	Function string
	IP       int
	SP       int
	Depth    int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// FrameInfo captures a call frame at the time of an error.
type FrameInfo struct {
	Function string
	IP       int
	Op       string
}

// RuntimeError is a fatal VM fault. Cause is one of the Err* sentinels.
type RuntimeError struct {
	Message string
	Frame   FrameInfo
	Stack   []FrameInfo
	Cause   error
}

func (e *RuntimeError) Error() string {
	locParts := []string{}
	if e.Frame.Function != "" {
		locParts = append(locParts, fmt.Sprintf("in %s", e.Frame.Function))
	}
	if e.Frame.Op != "" {
		locParts = append(locParts, fmt.Sprintf("at %04d %s", e.Frame.IP, e.Frame.Op))
	}
	loc := strings.Join(locParts, " ")
	if loc != "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	return e.Message
}

// Unwrap exposes the sentinel cause.
func (e *RuntimeError) Unwrap() error {
	return e.Cause
}

func (vm *VM) errorf(cause error, format string, args ...any) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	fr := vm.currentFrame()
	err := &RuntimeError{
		Message: msg,
		Frame:   vm.frameInfo(fr),
		Stack:   vm.stackTrace(),
		Cause:   cause,
	}
	log.Errorf("%s", err.Error())
	return err
}

func (vm *VM) trace(fr *Frame, op byte) {
	if vm.traceHook == nil {
		return
	}
	vm.traceHook(TraceInfo{
		Op:       op,
		Function: displayName(fr),
		IP:       fr.ip,
		SP:       vm.sp,
		Depth:    vm.framesIndex,
	})
}

func (vm *VM) stackTrace() []FrameInfo {
	if vm.framesIndex == 0 {
		return nil
	}
	trace := make([]FrameInfo, 0, vm.framesIndex)
	for i := vm.framesIndex - 1; i >= 0; i-- {
		trace = append(trace, vm.frameInfo(vm.frames[i]))
	}
	return trace
}

func (vm *VM) frameInfo(fr *Frame) FrameInfo {
	if fr == nil || fr.cl == nil {
		return FrameInfo{}
	}
	info := FrameInfo{
		Function: displayName(fr),
		IP:       fr.ip,
	}
	ins := fr.Instructions()
	if fr.ip >= 0 && fr.ip < len(ins) {
		info.Op = bytecode.OpName(ins[fr.ip])
	}
	return info
}

func displayName(fr *Frame) string {
	if fr == nil {
		return ""
	}
	if name := fr.name(); name != "" {
		return name
	}
	return "<anon>"
}
