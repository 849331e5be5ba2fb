package compiler

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-monkey/internal/token"
)

var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrUnknownOperator   = errors.New("unknown operator")
	ErrOutermostScope    = errors.New("cannot leave outermost scope")
	ErrUnsupportedNode   = errors.New("unsupported node")
	ErrOperandOverflow   = errors.New("operand overflow")
)

// CompileError reports a failed compilation with the source position of the
// offending node. Cause is one of the Err* sentinels.
type CompileError struct {
	Cause   error
	Message string
	Pos     token.Position
}

func (e *CompileError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
	}
	return e.Message
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

func newCompileError(cause error, pos token.Position, format string, args ...any) *CompileError {
	return &CompileError{
		Cause:   cause,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}
