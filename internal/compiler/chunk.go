package compiler

import (
	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/object"
)

type Instructions = bytecode.Instructions
type Prototype = bytecode.Prototype

// Bytecode is the output of a compilation pass: the top-level instructions
// and the constant pool they index into.
type Bytecode struct {
	Instructions Instructions
	Constants    []object.Value
}
