package compiler

import "github.com/xirelogy/go-monkey/internal/bytecode"

const (
	OP_CONST           = bytecode.OP_CONST
	OP_NULL            = bytecode.OP_NULL
	OP_TRUE            = bytecode.OP_TRUE
	OP_FALSE           = bytecode.OP_FALSE
	OP_POP             = bytecode.OP_POP
	OP_ADD             = bytecode.OP_ADD
	OP_SUB             = bytecode.OP_SUB
	OP_MUL             = bytecode.OP_MUL
	OP_DIV             = bytecode.OP_DIV
	OP_NEG             = bytecode.OP_NEG
	OP_NOT             = bytecode.OP_NOT
	OP_EQ              = bytecode.OP_EQ
	OP_NEQ             = bytecode.OP_NEQ
	OP_GT              = bytecode.OP_GT
	OP_GET_GLOBAL      = bytecode.OP_GET_GLOBAL
	OP_SET_GLOBAL      = bytecode.OP_SET_GLOBAL
	OP_GET_LOCAL       = bytecode.OP_GET_LOCAL
	OP_SET_LOCAL       = bytecode.OP_SET_LOCAL
	OP_GET_BUILTIN     = bytecode.OP_GET_BUILTIN
	OP_GET_FREE        = bytecode.OP_GET_FREE
	OP_CURRENT_CLOSURE = bytecode.OP_CURRENT_CLOSURE
	OP_ARRAY           = bytecode.OP_ARRAY
	OP_HASH            = bytecode.OP_HASH
	OP_INDEX           = bytecode.OP_INDEX
	OP_JUMP            = bytecode.OP_JUMP
	OP_JUMP_IF_FALSE   = bytecode.OP_JUMP_IF_FALSE
	OP_CALL            = bytecode.OP_CALL
	OP_RETURN_VALUE    = bytecode.OP_RETURN_VALUE
	OP_RETURN          = bytecode.OP_RETURN
	OP_CLOSURE         = bytecode.OP_CLOSURE
)
