package vm

import "github.com/xirelogy/go-monkey/internal/object"

var _ object.Host = (*VM)(nil)

// callBuiltin runs a native function with the arguments on top of the stack.
// Misuse comes back as an ERROR value and does not stop the VM.
func (vm *VM) callBuiltin(b *object.Builtin, numArgs int) error {
	if b == nil || b.Fn == nil {
		return vm.errorf(ErrNotCallable, "calling empty builtin")
	}
	args := make([]object.Value, numArgs)
	copy(args, vm.stack[vm.sp-numArgs:vm.sp])

	result := b.Fn(vm, args...)
	vm.sp = vm.sp - numArgs - 1
	return vm.push(result)
}
