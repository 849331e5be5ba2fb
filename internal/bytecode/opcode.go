package bytecode

import (
	"encoding/binary"
	"fmt"
)

// OpCode enumerates bytecode operations.
// Numeric values are not persisted; only the in-process compiler and VM agree on them.
const (
	OP_CONST byte = iota
	OP_NULL
	OP_TRUE
	OP_FALSE
	OP_POP

	OP_ADD
	OP_SUB
	OP_MUL
	OP_DIV
	OP_NEG
	OP_NOT

	OP_EQ
	OP_NEQ
	OP_GT

	OP_GET_GLOBAL
	OP_SET_GLOBAL
	OP_GET_LOCAL
	OP_SET_LOCAL
	OP_GET_BUILTIN
	OP_GET_FREE
	OP_CURRENT_CLOSURE

	OP_ARRAY
	OP_HASH
	OP_INDEX

	OP_JUMP
	OP_JUMP_IF_FALSE

	OP_CALL
	OP_RETURN_VALUE
	OP_RETURN
	OP_CLOSURE
)

// Definition describes an opcode mnemonic and the byte width of each operand.
type Definition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[byte]Definition{
	OP_CONST: {"OP_CONST", []int{2}},
	OP_NULL:  {"OP_NULL", []int{}},
	OP_TRUE:  {"OP_TRUE", []int{}},
	OP_FALSE: {"OP_FALSE", []int{}},
	OP_POP:   {"OP_POP", []int{}},

	OP_ADD: {"OP_ADD", []int{}},
	OP_SUB: {"OP_SUB", []int{}},
	OP_MUL: {"OP_MUL", []int{}},
	OP_DIV: {"OP_DIV", []int{}},
	OP_NEG: {"OP_NEG", []int{}},
	OP_NOT: {"OP_NOT", []int{}},

	OP_EQ:  {"OP_EQ", []int{}},
	OP_NEQ: {"OP_NEQ", []int{}},
	OP_GT:  {"OP_GT", []int{}},

	OP_GET_GLOBAL:      {"OP_GET_GLOBAL", []int{2}},
	OP_SET_GLOBAL:      {"OP_SET_GLOBAL", []int{2}},
	OP_GET_LOCAL:       {"OP_GET_LOCAL", []int{1}},
	OP_SET_LOCAL:       {"OP_SET_LOCAL", []int{1}},
	OP_GET_BUILTIN:     {"OP_GET_BUILTIN", []int{1}},
	OP_GET_FREE:        {"OP_GET_FREE", []int{1}},
	OP_CURRENT_CLOSURE: {"OP_CURRENT_CLOSURE", []int{}},

	OP_ARRAY: {"OP_ARRAY", []int{2}},
	OP_HASH:  {"OP_HASH", []int{2}},
	OP_INDEX: {"OP_INDEX", []int{}},

	OP_JUMP:          {"OP_JUMP", []int{2}},
	OP_JUMP_IF_FALSE: {"OP_JUMP_IF_FALSE", []int{2}},

	OP_CALL:         {"OP_CALL", []int{1}},
	OP_RETURN_VALUE: {"OP_RETURN_VALUE", []int{}},
	OP_RETURN:       {"OP_RETURN", []int{}},
	// function constant index, free variable count
	OP_CLOSURE: {"OP_CLOSURE", []int{2, 1}},
}

// Lookup returns the definition for op.
func Lookup(op byte) (Definition, bool) {
	def, ok := definitions[op]
	return def, ok
}

// OpName reports the mnemonic for op, or a hex placeholder when undefined.
func OpName(op byte) string {
	if def, ok := definitions[op]; ok {
		return def.Name
	}
	return fmt.Sprintf("OP_0x%02X", op)
}

// Make encodes a single instruction. An unknown opcode yields an empty buffer.
func Make(op byte, operands ...int) Instructions {
	def, ok := definitions[op]
	if !ok {
		return Instructions{}
	}

	length := 1
	for _, w := range def.OperandWidths {
		length += w
	}

	ins := make(Instructions, length)
	ins[0] = op

	offset := 1
	for i, o := range operands {
		if i >= len(def.OperandWidths) {
			break
		}
		width := def.OperandWidths[i]
		switch width {
		case 2:
			PutUint16(ins[offset:], uint16(o))
		case 1:
			ins[offset] = byte(o)
		}
		offset += width
	}
	return ins
}

// ReadOperands decodes the operands that follow an opcode and reports how
// many bytes were consumed.
func ReadOperands(def Definition, ins Instructions) ([]int, int) {
	operands := make([]int, len(def.OperandWidths))
	offset := 0

	for i, width := range def.OperandWidths {
		switch width {
		case 2:
			operands[i] = int(ReadUint16(ins[offset:]))
		case 1:
			operands[i] = int(ReadUint8(ins[offset:]))
		}
		offset += width
	}
	return operands, offset
}

// ReadUint16 reads a big-endian 2-byte operand.
func ReadUint16(ins Instructions) uint16 {
	return binary.BigEndian.Uint16(ins)
}

// ReadUint8 reads a 1-byte operand.
func ReadUint8(ins Instructions) uint8 {
	return ins[0]
}

// PutUint16 writes a big-endian 2-byte operand.
func PutUint16(ins Instructions, v uint16) {
	binary.BigEndian.PutUint16(ins, v)
}

// MaxOperand returns the largest value an operand of the given width can hold.
func MaxOperand(width int) int {
	return 1<<(8*width) - 1
}
