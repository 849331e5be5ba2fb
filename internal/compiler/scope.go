package compiler

// emittedInstruction records an opcode and the offset it was written at.
// A negative Position means nothing is known.
type emittedInstruction struct {
	Opcode   byte
	Position int
}

var noInstruction = emittedInstruction{Position: -1}

// compilationScope holds the instructions of one function body while it is
// being compiled, along with the last two instructions emitted into it.
type compilationScope struct {
	instructions        Instructions
	lastInstruction     emittedInstruction
	previousInstruction emittedInstruction
}

func newCompilationScope() compilationScope {
	return compilationScope{
		instructions:        Instructions{},
		lastInstruction:     noInstruction,
		previousInstruction: noInstruction,
	}
}

func (s *compilationScope) record(op byte, pos int) {
	s.previousInstruction = s.lastInstruction
	s.lastInstruction = emittedInstruction{Opcode: op, Position: pos}
}

func (s *compilationScope) lastIs(op byte) bool {
	if len(s.instructions) == 0 || s.lastInstruction.Position < 0 {
		return false
	}
	return s.lastInstruction.Opcode == op
}

// removeLast drops the most recent instruction and makes the previous one last.
// Only one level of history is kept, so the instruction before that is unknown
// until the next emit.
func (s *compilationScope) removeLast() {
	if s.lastInstruction.Position < 0 {
		return
	}
	s.instructions = s.instructions[:s.lastInstruction.Position]
	s.lastInstruction = s.previousInstruction
	s.previousInstruction = noInstruction
}
