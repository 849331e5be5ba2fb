package compiler

// SymbolScope says where a resolved name lives at run time.
type SymbolScope string

const (
	GlobalScope   SymbolScope = "GLOBAL"
	LocalScope    SymbolScope = "LOCAL"
	BuiltinScope  SymbolScope = "BUILTIN"
	FreeScope     SymbolScope = "FREE"
	FunctionScope SymbolScope = "FUNCTION"
)

// Symbol is a resolved name and its slot within Scope.
type Symbol struct {
	Name  string
	Scope SymbolScope
	Index int
}

// SymbolTable resolves names for one lexical scope. Tables without an Outer
// are global; enclosed tables hand out local slots and record every symbol
// they capture from an enclosing function in FreeSymbols.
type SymbolTable struct {
	Outer *SymbolTable

	store          map[string]Symbol
	numDefinitions int

	FreeSymbols []Symbol
}

// NewSymbolTable returns an empty global table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		store:       make(map[string]Symbol),
		FreeSymbols: []Symbol{},
	}
}

// NewEnclosedSymbolTable returns a function-level table inside outer.
func NewEnclosedSymbolTable(outer *SymbolTable) *SymbolTable {
	s := NewSymbolTable()
	s.Outer = outer
	return s
}

// Define binds name to the next slot of this table. Redefining a name this
// table already owns reuses its slot, so `let x = x + 1` reads the old value.
func (s *SymbolTable) Define(name string) Symbol {
	scope := LocalScope
	if s.Outer == nil {
		scope = GlobalScope
	}
	if existing, ok := s.store[name]; ok && existing.Scope == scope {
		return existing
	}

	symbol := Symbol{Name: name, Index: s.numDefinitions, Scope: scope}
	s.store[name] = symbol
	s.numDefinitions++
	return symbol
}

func (s *SymbolTable) DefineBuiltin(index int, name string) Symbol {
	symbol := Symbol{Name: name, Index: index, Scope: BuiltinScope}
	s.store[name] = symbol
	return symbol
}

// DefineFunctionName binds the name of the function being compiled to the
// closure currently executing.
func (s *SymbolTable) DefineFunctionName(name string) Symbol {
	symbol := Symbol{Name: name, Index: 0, Scope: FunctionScope}
	s.store[name] = symbol
	return symbol
}

func (s *SymbolTable) defineFree(original Symbol) Symbol {
	s.FreeSymbols = append(s.FreeSymbols, original)

	symbol := Symbol{Name: original.Name, Index: len(s.FreeSymbols) - 1, Scope: FreeScope}
	s.store[original.Name] = symbol
	return symbol
}

// Resolve looks name up through the enclosing tables. Globals and builtins
// pass through unchanged; anything else found in an outer table is captured
// as a free variable of this table.
func (s *SymbolTable) Resolve(name string) (Symbol, bool) {
	symbol, ok := s.store[name]
	if ok || s.Outer == nil {
		return symbol, ok
	}

	symbol, ok = s.Outer.Resolve(name)
	if !ok {
		return symbol, false
	}
	if symbol.Scope == GlobalScope || symbol.Scope == BuiltinScope {
		return symbol, true
	}
	return s.defineFree(symbol), true
}

// Clone copies this table's own bindings. Outer is shared, not copied.
func (s *SymbolTable) Clone() *SymbolTable {
	c := &SymbolTable{
		Outer:          s.Outer,
		store:          make(map[string]Symbol, len(s.store)),
		numDefinitions: s.numDefinitions,
		FreeSymbols:    append([]Symbol{}, s.FreeSymbols...),
	}
	for name, symbol := range s.store {
		c.store[name] = symbol
	}
	return c
}

// NumDefinitions reports how many slots Define has handed out.
func (s *SymbolTable) NumDefinitions() int {
	return s.numDefinitions
}
