package bytecode

import (
	"fmt"
	"strings"
)

// Instructions is a flat, encoded instruction stream.
type Instructions []byte

// String renders one instruction per line as "offset mnemonic operands".
func (ins Instructions) String() string {
	var out strings.Builder

	for i := 0; i < len(ins); {
		def, ok := Lookup(ins[i])
		if !ok {
			fmt.Fprintf(&out, "ERROR: opcode 0x%02X undefined\n", ins[i])
			i++
			continue
		}
		operands, read := ReadOperands(def, ins[i+1:])
		fmt.Fprintf(&out, "%04d %s\n", i, formatInstruction(def, operands))
		i += 1 + read
	}
	return out.String()
}

func formatInstruction(def Definition, operands []int) string {
	if len(operands) != len(def.OperandWidths) {
		return fmt.Sprintf("ERROR: operand len %d does not match defined %d", len(operands), len(def.OperandWidths))
	}
	switch len(operands) {
	case 0:
		return def.Name
	case 1:
		return fmt.Sprintf("%s %d", def.Name, operands[0])
	case 2:
		return fmt.Sprintf("%s %d %d", def.Name, operands[0], operands[1])
	}
	return fmt.Sprintf("ERROR: unhandled operand count for %s", def.Name)
}

// Prototype represents a compiled function.
type Prototype struct {
	Name          string
	Instructions  Instructions
	NumLocals     int
	NumParameters int
}
