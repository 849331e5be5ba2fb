package runtime

import (
	"fmt"
	"sort"

	"github.com/xirelogy/go-monkey/internal/bytecode"
	"github.com/xirelogy/go-monkey/internal/object"
)

// Spec describes a builtin function and its fixed slot in the builtin table.
type Spec struct {
	Name  string
	Index int
	Fn    object.BuiltinFunction

	builtin *object.Builtin
}

var (
	byName  = map[string]Spec{}
	byIndex = map[int]Spec{}
)

// Register installs a builtin. The slot index is what OP_GET_BUILTIN encodes,
// so it must stay stable and fit in one byte.
func Register(spec Spec) {
	if spec.Fn == nil {
		panic(fmt.Sprintf("builtin %s has nil function", spec.Name))
	}
	if spec.Index < 0 || spec.Index > bytecode.MaxOperand(1) {
		panic(fmt.Sprintf("builtin %s slot %d out of range", spec.Name, spec.Index))
	}
	if _, exists := byName[spec.Name]; exists {
		panic(fmt.Sprintf("builtin %s already registered", spec.Name))
	}
	if _, exists := byIndex[spec.Index]; exists {
		panic(fmt.Sprintf("builtin slot %d already registered", spec.Index))
	}
	spec.builtin = &object.Builtin{Name: spec.Name, Fn: spec.Fn}
	byName[spec.Name] = spec
	byIndex[spec.Index] = spec
	bytecode.RegisterBuiltinInfo(spec.Name, spec.Index)
}

// LookupByName finds a builtin by its script-visible name.
func LookupByName(name string) (Spec, bool) {
	spec, ok := byName[name]
	return spec, ok
}

// LookupByIndex finds a builtin by slot.
func LookupByIndex(index int) (Spec, bool) {
	spec, ok := byIndex[index]
	return spec, ok
}

// Value returns the builtin as a callable runtime value.
func (s Spec) Value() object.Value {
	if s.builtin == nil {
		return object.BuiltinVal(&object.Builtin{Name: s.Name, Fn: s.Fn})
	}
	return object.BuiltinVal(s.builtin)
}

// All returns all registered builtins ordered by slot.
func All() []Spec {
	out := make([]Spec, 0, len(byIndex))
	for _, spec := range byIndex {
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}
