package object

import (
	"fmt"
	"io"
)

// Host is the part of the running VM a builtin may touch.
type Host interface {
	Stdout() io.Writer
}

// BuiltinFunction implements a native function. Misuse is reported by
// returning an ERROR value, never a Go error.
type BuiltinFunction func(h Host, args ...Value) Value

type Builtin struct {
	Name string
	Fn   BuiltinFunction
}

// WrongArgCount is the in-band error for an argument count mismatch.
func WrongArgCount(got, want int) Value {
	return ErrorVal(fmt.Sprintf("wrong number of arguments. got=%d, want=%d", got, want))
}

// Unsupported is the in-band error for an argument of the wrong type.
func Unsupported(name string, got Value) Value {
	return ErrorVal(fmt.Sprintf("argument to `%s` not supported, got %s", name, got.Type()))
}

// MustBeArray is the in-band error for a builtin that only accepts arrays.
func MustBeArray(name string, got Value) Value {
	return ErrorVal(fmt.Sprintf("argument to `%s` must be ARRAY, got %s", name, got.Type()))
}
