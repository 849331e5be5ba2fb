package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// ConstantPool is the view of a constant pool the disassembler needs.
type ConstantPool interface {
	Len() int
	// Describe renders constant i for a listing.
	Describe(i int) string
	// Prototype returns the compiled function stored at i, or nil.
	Prototype(i int) *Prototype
}

// Disassembler formats bytecode as a readable assembly-style dump.
type Disassembler struct {
	w       io.Writer
	visited map[*Prototype]bool
	printed bool
}

// NewDisassembler constructs a disassembler that writes to w.
func NewDisassembler(w io.Writer) *Disassembler {
	return &Disassembler{
		w:       w,
		visited: make(map[*Prototype]bool),
	}
}

// DisassembleProgram emits the top-level instructions followed by every
// compiled function found in the constant pool.
func (d *Disassembler) DisassembleProgram(ins Instructions, pool ConstantPool) error {
	d.startSection()
	fmt.Fprintf(d.w, "func <main> (constants=%d)\n", poolLen(pool))
	if err := d.disassembleInstructions(ins, pool); err != nil {
		return err
	}
	if pool == nil {
		return nil
	}
	for idx := 0; idx < pool.Len(); idx++ {
		proto := pool.Prototype(idx)
		if proto == nil {
			continue
		}
		label := proto.Name
		if label == "" {
			label = fmt.Sprintf("<closure@const:%d>", idx)
		}
		if err := d.DisassemblePrototype(label, proto, pool); err != nil {
			return err
		}
	}
	return nil
}

// DisassemblePrototype emits a readable dump for a single compiled function.
func (d *Disassembler) DisassemblePrototype(label string, proto *Prototype, pool ConstantPool) error {
	if proto == nil {
		return fmt.Errorf("nil prototype")
	}
	if d.visited[proto] {
		return nil
	}
	d.visited[proto] = true
	d.startSection()
	name := label
	if name == "" {
		name = proto.Name
	}
	if name == "" {
		name = "<anon>"
	}
	fmt.Fprintf(d.w, "func %s (params=%d, locals=%d)\n", name, proto.NumParameters, proto.NumLocals)
	return d.disassembleInstructions(proto.Instructions, pool)
}

func (d *Disassembler) startSection() {
	if d.printed {
		fmt.Fprintln(d.w)
	}
	d.printed = true
}

func (d *Disassembler) disassembleInstructions(ins Instructions, pool ConstantPool) error {
	for ip := 0; ip < len(ins); {
		offset := ip
		op := ins[ip]
		ip++
		def, ok := Lookup(op)
		if !ok {
			fmt.Fprintf(d.w, "%04d %-18s\n", offset, OpName(op))
			continue
		}
		width := 0
		for _, w := range def.OperandWidths {
			width += w
		}
		if ip+width > len(ins) {
			return fmt.Errorf("unexpected end of bytecode at %04d", offset)
		}
		operands, read := ReadOperands(def, ins[ip:])
		ip += read

		parts := make([]string, 0, len(operands))
		for _, o := range operands {
			parts = append(parts, fmt.Sprintf("%d", o))
		}
		detail := strings.Join(parts, " ")
		if comment := describeOperands(op, operands, pool); comment != "" {
			if detail != "" {
				detail += " "
			}
			detail += "; " + comment
		}
		fmt.Fprintf(d.w, "%04d %-18s", offset, def.Name)
		if detail != "" {
			fmt.Fprintf(d.w, " %s", detail)
		}
		fmt.Fprintln(d.w)
	}
	return nil
}

func describeOperands(op byte, operands []int, pool ConstantPool) string {
	switch op {
	case OP_CONST:
		return "const=" + constRef(pool, operands[0])
	case OP_CLOSURE:
		return fmt.Sprintf("fn=%s free=%d", constRef(pool, operands[0]), operands[1])
	case OP_GET_BUILTIN:
		if info, ok := LookupBuiltinInfo(operands[0]); ok {
			return "builtin=" + info.Name
		}
		return "builtin=<unknown>"
	default:
		return ""
	}
}

func constRef(pool ConstantPool, idx int) string {
	if pool == nil || idx >= pool.Len() {
		return "<invalid>"
	}
	return pool.Describe(idx)
}

func poolLen(pool ConstantPool) int {
	if pool == nil {
		return 0
	}
	return pool.Len()
}
