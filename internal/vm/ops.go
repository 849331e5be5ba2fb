package vm

import (
	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/object"
)

// executeBinaryOperation pops right then left; the right operand was pushed last.
func (vm *VM) executeBinaryOperation(op byte) error {
	right := vm.pop()
	left := vm.pop()

	switch {
	case left.Kind == object.KindInteger && right.Kind == object.KindInteger:
		return vm.executeIntegerOperation(op, left.Int, right.Int)
	case left.Kind == object.KindString && right.Kind == object.KindString:
		if op != bytecode.OP_ADD {
			return vm.errorf(ErrUnsupportedOperands, "unknown string operator: %s", bytecode.OpName(op))
		}
		return vm.push(object.String(left.Str + right.Str))
	default:
		return vm.errorf(ErrUnsupportedOperands, "unsupported types for binary operation: %s %s", left.Type(), right.Type())
	}
}

func (vm *VM) executeIntegerOperation(op byte, left, right int64) error {
	var result int64
	switch op {
	case bytecode.OP_ADD:
		result = left + right
	case bytecode.OP_SUB:
		result = left - right
	case bytecode.OP_MUL:
		result = left * right
	case bytecode.OP_DIV:
		if right == 0 {
			return vm.errorf(ErrDivisionByZero, "division by zero")
		}
		result = left / right
	default:
		return vm.errorf(ErrUnsupportedOperands, "unknown integer operator: %s", bytecode.OpName(op))
	}
	return vm.push(object.Integer(result))
}

func (vm *VM) executeComparison(op byte) error {
	right := vm.pop()
	left := vm.pop()

	if left.Kind == object.KindInteger && right.Kind == object.KindInteger {
		switch op {
		case bytecode.OP_EQ:
			return vm.push(object.Bool(left.Int == right.Int))
		case bytecode.OP_NEQ:
			return vm.push(object.Bool(left.Int != right.Int))
		case bytecode.OP_GT:
			return vm.push(object.Bool(left.Int > right.Int))
		}
	}

	switch op {
	case bytecode.OP_EQ:
		return vm.push(object.Bool(object.Equal(left, right)))
	case bytecode.OP_NEQ:
		return vm.push(object.Bool(!object.Equal(left, right)))
	default:
		return vm.errorf(ErrUnsupportedOperands, "unknown operator: %s (%s %s)", bytecode.OpName(op), left.Type(), right.Type())
	}
}

func (vm *VM) executeIndex(left, index object.Value) error {
	switch {
	case left.Kind == object.KindArray && index.Kind == object.KindInteger:
		i := index.Int
		if i < 0 || i >= int64(len(left.Arr)) {
			return vm.push(object.Null())
		}
		return vm.push(left.Arr[i])
	case left.Kind == object.KindHash:
		key, ok := index.HashKey()
		if !ok {
			return vm.errorf(ErrUnusableHashKey, "unusable as hash key: %s", index.Type())
		}
		// Distinct strings may share a key; the stored key decides.
		pair, ok := left.Hash[key]
		if !ok || !object.Equal(pair.Key, index) {
			return vm.push(object.Null())
		}
		return vm.push(pair.Value)
	default:
		return vm.errorf(ErrNotIndexable, "index operator not supported: %s[%s]", left.Type(), index.Type())
	}
}

// buildHash consumes alternating key/value slots in push order.
func (vm *VM) buildHash(start, end int) (object.Value, error) {
	pairs := make(map[object.HashKey]object.HashPair, (end-start)/2)
	for i := start; i < end; i += 2 {
		key := vm.stack[i]
		value := vm.stack[i+1]
		hashKey, ok := key.HashKey()
		if !ok {
			return object.Value{}, vm.errorf(ErrUnusableHashKey, "unusable as hash key: %s", key.Type())
		}
		pairs[hashKey] = object.HashPair{Key: key, Value: value}
	}
	return object.Hash(pairs), nil
}
