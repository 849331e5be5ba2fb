package vm

import (
	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/object"
)

// Frame is one active call. ip points at the instruction being executed
// and starts at -1 so the first fetch lands on offset 0.
type Frame struct {
	cl          *object.Closure
	ip          int
	basePointer int
}

func NewFrame(cl *object.Closure, basePointer int) *Frame {
	return &Frame{
		cl:          cl,
		ip:          -1,
		basePointer: basePointer,
	}
}

func (f *Frame) Instructions() bytecode.Instructions {
	return f.cl.Fn.Instructions
}

func (f *Frame) name() string {
	if f == nil || f.cl == nil || f.cl.Fn == nil {
		return ""
	}
	return f.cl.Fn.Name
}
