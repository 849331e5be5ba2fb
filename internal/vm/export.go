package vm

import "github.com/xirelogy/go-monkey/internal/object"

// Stats summarizes the most recent Run.
type Stats struct {
	Instructions int
	MaxStack     int
	MaxFrames    int
}

// LastPoppedStackElem returns the value most recently popped. After a
// top-level expression statement this is the statement's value.
func (vm *VM) LastPoppedStackElem() object.Value {
	if vm.sp >= len(vm.stack) {
		return object.Null()
	}
	return vm.stack[vm.sp]
}

// StackTop returns the value on top of the stack, or null when empty.
func (vm *VM) StackTop() object.Value {
	if vm.sp == 0 {
		return object.Null()
	}
	return vm.stack[vm.sp-1]
}

// Globals exposes the global store, which may be shared with a later VM.
func (vm *VM) Globals() []object.Value {
	return vm.globals
}

func (vm *VM) Stats() Stats {
	return vm.stats
}
