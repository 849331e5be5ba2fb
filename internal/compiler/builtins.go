package compiler

import "github.com/xirelogy/go-monkey/internal/runtime"

// NewGlobalSymbolTable returns an outermost table with every registered
// builtin already defined at its registry slot.
func NewGlobalSymbolTable() *SymbolTable {
	st := NewSymbolTable()
	for _, spec := range runtime.All() {
		st.DefineBuiltin(spec.Index, spec.Name)
	}
	return st
}
