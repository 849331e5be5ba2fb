package length

import (
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/runtime"
)

const index = 0

func init() {
	runtime.Register(runtime.Spec{
		Name:  "len",
		Index: index,
		Fn:    runLen,
	})
}

func runLen(_ object.Host, args ...object.Value) object.Value {
	if len(args) != 1 {
		return object.WrongArgCount(len(args), 1)
	}
	switch arg := args[0]; arg.Kind {
	case object.KindString:
		return object.Integer(int64(len(arg.Str)))
	case object.KindArray:
		return object.Integer(int64(len(arg.Arr)))
	default:
		return object.Unsupported("len", arg)
	}
}
