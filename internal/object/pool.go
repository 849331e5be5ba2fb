package object

import (
	"strconv"

	"github.com/xirelogy/go-monkey/internal/bytecode"
)

// Pool adapts a constant slice for the disassembler.
type Pool []Value

var _ bytecode.ConstantPool = Pool(nil)

func (p Pool) Len() int { return len(p) }

func (p Pool) Describe(i int) string {
	v := p[i]
	switch v.Kind {
	case KindString:
		return strconv.Quote(v.Str)
	case KindCompiledFunction:
		return "fn " + protoName(v.Proto)
	default:
		return v.Inspect()
	}
}

func (p Pool) Prototype(i int) *bytecode.Prototype {
	if p[i].Kind != KindCompiledFunction {
		return nil
	}
	return p[i].Proto
}
