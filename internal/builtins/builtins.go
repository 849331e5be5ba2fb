// Package builtins links every builtin plugin into the registry.
package builtins

import (
	_ "github.com/xirelogy/go-monkey/internal/builtins/arrays"
	_ "github.com/xirelogy/go-monkey/internal/builtins/length"
	_ "github.com/xirelogy/go-monkey/internal/builtins/logging"
	_ "github.com/xirelogy/go-monkey/internal/builtins/strcase"
)
