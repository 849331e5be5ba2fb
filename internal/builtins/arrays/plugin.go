package arrays

import (
	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/runtime"
)

const (
	firstIndex = 2
	lastIndex  = 3
	restIndex  = 4
	pushIndex  = 5
	popIndex   = 6
)

func init() {
	runtime.Register(runtime.Spec{Name: "first", Index: firstIndex, Fn: runFirst})
	runtime.Register(runtime.Spec{Name: "last", Index: lastIndex, Fn: runLast})
	runtime.Register(runtime.Spec{Name: "rest", Index: restIndex, Fn: runRest})
	runtime.Register(runtime.Spec{Name: "push", Index: pushIndex, Fn: runPush})
	runtime.Register(runtime.Spec{Name: "pop", Index: popIndex, Fn: runPop})
}

func arrayArg(name string, want int, args []object.Value) ([]object.Value, object.Value, bool) {
	if len(args) != want {
		return nil, object.WrongArgCount(len(args), want), false
	}
	if args[0].Kind != object.KindArray {
		return nil, object.MustBeArray(name, args[0]), false
	}
	return args[0].Arr, object.Value{}, true
}

func runFirst(_ object.Host, args ...object.Value) object.Value {
	elements, errVal, ok := arrayArg("first", 1, args)
	if !ok {
		return errVal
	}
	if len(elements) == 0 {
		return object.Null()
	}
	return elements[0]
}

func runLast(_ object.Host, args ...object.Value) object.Value {
	elements, errVal, ok := arrayArg("last", 1, args)
	if !ok {
		return errVal
	}
	if len(elements) == 0 {
		return object.Null()
	}
	return elements[len(elements)-1]
}

func runRest(_ object.Host, args ...object.Value) object.Value {
	elements, errVal, ok := arrayArg("rest", 1, args)
	if !ok {
		return errVal
	}
	if len(elements) == 0 {
		return object.Null()
	}
	out := make([]object.Value, len(elements)-1)
	copy(out, elements[1:])
	return object.Array(out)
}

func runPush(_ object.Host, args ...object.Value) object.Value {
	elements, errVal, ok := arrayArg("push", 2, args)
	if !ok {
		return errVal
	}
	out := make([]object.Value, len(elements), len(elements)+1)
	copy(out, elements)
	return object.Array(append(out, args[1]))
}

// runPop returns a copy without the last element; the argument is left untouched.
func runPop(_ object.Host, args ...object.Value) object.Value {
	elements, errVal, ok := arrayArg("pop", 1, args)
	if !ok {
		return errVal
	}
	if len(elements) == 0 {
		return object.Array([]object.Value{})
	}
	out := make([]object.Value, len(elements)-1)
	copy(out, elements[:len(elements)-1])
	return object.Array(out)
}
