package vm

import (
	"fmt"
	"io"

	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/object"
)

// Disassemble emits assembly-style output for the loaded program and every
// compiled function in its constant pool.
func (vm *VM) Disassemble(w io.Writer) error {
	if vm == nil {
		return fmt.Errorf("nil VM")
	}
	if w == nil {
		return fmt.Errorf("nil writer")
	}
	main := vm.frames[0]
	if main == nil {
		return fmt.Errorf("no program loaded")
	}
	dis := bytecode.NewDisassembler(w)
	return dis.DisassembleProgram(main.Instructions(), object.Pool(vm.constants))
}
