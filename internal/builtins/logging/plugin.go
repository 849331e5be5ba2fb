package logging

import (
	"fmt"

	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/runtime"
)

const index = 1

func init() {
	runtime.Register(runtime.Spec{
		Name:  "log",
		Index: index,
		Fn:    runLog,
	})
}

// runLog prints each argument on its own line.
func runLog(h object.Host, args ...object.Value) object.Value {
	w := h.Stdout()
	for _, arg := range args {
		fmt.Fprintln(w, arg.Inspect())
	}
	return object.Null()
}
