package strcase

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/xirelogy/go-monkey/internal/object"
	"github.com/xirelogy/go-monkey/internal/runtime"
)

const (
	upperIndex = 7
	lowerIndex = 8
)

func init() {
	runtime.Register(runtime.Spec{Name: "toUpper", Index: upperIndex, Fn: caseMapper("toUpper", func() cases.Caser { return cases.Upper(language.Und) })})
	runtime.Register(runtime.Spec{Name: "toLower", Index: lowerIndex, Fn: caseMapper("toLower", func() cases.Caser { return cases.Lower(language.Und) })})
}

// caseMapper builds a builtin around a caser. A cases.Caser is stateful, so
// every call gets a fresh one.
func caseMapper(name string, newCaser func() cases.Caser) object.BuiltinFunction {
	return func(_ object.Host, args ...object.Value) object.Value {
		if len(args) != 1 {
			return object.WrongArgCount(len(args), 1)
		}
		if args[0].Kind != object.KindString {
			return object.Unsupported(name, args[0])
		}
		return object.String(newCaser().String(args[0].Str))
	}
}
