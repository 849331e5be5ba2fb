package object

import (
	"sort"
	"strconv"
	"strings"

	"github.com/xirelogy/go-monkey/internal/bytecode"
)

type Kind int

// KindNull is the zero value so an unset Value reads as null.
const (
	KindNull Kind = iota
	KindInteger
	KindBoolean
	KindString
	KindArray
	KindHash
	KindError
	KindBuiltin
	KindCompiledFunction
	KindClosure
)

var kindNames = [...]string{
	KindNull:             "NULL",
	KindInteger:          "INTEGER",
	KindBoolean:          "BOOLEAN",
	KindString:           "STRING",
	KindArray:            "ARRAY",
	KindHash:             "HASH",
	KindError:            "ERROR",
	KindBuiltin:          "BUILTIN",
	KindCompiledFunction: "COMPILED_FUNCTION_OBJ",
	KindClosure:          "CLOSURE",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Value is a tagged runtime value. Only the fields matching Kind are set.
type Value struct {
	Kind    Kind
	Int     int64
	B       bool
	Str     string
	Err     string
	Arr     []Value
	Hash    map[HashKey]HashPair
	Builtin *Builtin
	Proto   *bytecode.Prototype
	Closure *Closure
}

// Closure pairs a compiled function with the free variables captured when
// it was created.
type Closure struct {
	Fn   *bytecode.Prototype
	Free []Value
}

func Null() Value { return Value{Kind: KindNull} }
func Integer(n int64) Value {
	return Value{Kind: KindInteger, Int: n}
}
func Bool(b bool) Value {
	return Value{Kind: KindBoolean, B: b}
}
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}
func Array(v []Value) Value {
	return Value{Kind: KindArray, Arr: v}
}
func Hash(m map[HashKey]HashPair) Value {
	return Value{Kind: KindHash, Hash: m}
}
func ErrorVal(s string) Value {
	return Value{Kind: KindError, Err: s}
}
func BuiltinVal(b *Builtin) Value {
	return Value{Kind: KindBuiltin, Builtin: b}
}
func CompiledFunction(p *bytecode.Prototype) Value {
	return Value{Kind: KindCompiledFunction, Proto: p}
}
func ClosureVal(c *Closure) Value {
	return Value{Kind: KindClosure, Closure: c}
}

// Type reports the type name used in error messages.
func (v Value) Type() string {
	return v.Kind.String()
}

func (v Value) IsError() bool { return v.Kind == KindError }

// Truthy: booleans are their own value, null is false, everything else is true.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBoolean:
		return v.B
	default:
		return true
	}
}

// Equal compares scalars structurally and reference kinds by identity.
// Arrays and hashes never compare equal.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindInteger:
		return a.Int == b.Int
	case KindBoolean:
		return a.B == b.B
	case KindString:
		return a.Str == b.Str
	case KindError:
		return a.Err == b.Err
	case KindBuiltin:
		return a.Builtin == b.Builtin
	case KindCompiledFunction:
		return a.Proto == b.Proto
	case KindClosure:
		return a.Closure == b.Closure
	default:
		return false
	}
}

// Inspect renders the value the way the REPL displays it.
func (v Value) Inspect() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindBoolean:
		return strconv.FormatBool(v.B)
	case KindString:
		return v.Str
	case KindError:
		return "ERROR: " + v.Err
	case KindArray:
		parts := make([]string, 0, len(v.Arr))
		for _, el := range v.Arr {
			parts = append(parts, el.Inspect())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindHash:
		parts := make([]string, 0, len(v.Hash))
		for _, pair := range v.Hash {
			parts = append(parts, pair.Key.Inspect()+": "+pair.Value.Inspect())
		}
		sort.Strings(parts)
		return "{" + strings.Join(parts, ", ") + "}"
	case KindBuiltin:
		if v.Builtin != nil {
			return "builtin function " + v.Builtin.Name
		}
		return "builtin function"
	case KindCompiledFunction:
		return "CompiledFunction[" + protoName(v.Proto) + "]"
	case KindClosure:
		if v.Closure == nil {
			return "Closure[<nil>]"
		}
		return "Closure[" + protoName(v.Closure.Fn) + "]"
	default:
		return "<unknown>"
	}
}

func protoName(p *bytecode.Prototype) string {
	if p == nil {
		return "<nil>"
	}
	if p.Name == "" {
		return "<anon>"
	}
	return p.Name
}
