package conformance

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Setup       []string   `yaml:"setup,omitempty"` // inputs evaluated before every test
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"` // bool or string
	Code        string      `yaml:"code,omitempty"`  // one program
	Steps       []string    `yaml:"steps,omitempty"` // REPL inputs; the last one is checked
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Value  *string `yaml:"value,omitempty"`  // Inspect() of the result
	Type   string  `yaml:"type,omitempty"`   // INTEGER, STRING, ERROR, ...
	Error  string  `yaml:"error,omitempty"`  // parse, undefined_variable, division_by_zero, ...
	Output *string `yaml:"output,omitempty"` // everything written by log
}

// Inputs returns the sources to evaluate in order.
func (tc *TestCase) Inputs() []string {
	if len(tc.Steps) > 0 {
		return tc.Steps
	}
	return []string{tc.Code}
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}
